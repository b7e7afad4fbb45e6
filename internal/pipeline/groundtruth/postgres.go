// internal/pipeline/groundtruth/postgres.go
package groundtruth

import (
	"context"
	"database/sql"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

// PostgresStore reads the inventory database owned by the CRUD application.
// All queries are read-only.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "groundtruth"}),
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) FindSupplierByName(ctx context.Context, name string) LookupResult {
	exact := `SELECT id, nom, ice, ville FROM fournisseurs WHERE nom = $1`
	if res := s.querySuppliers(ctx, exact, name); res.Status != StatusNotFound {
		return res
	}
	partial := `SELECT id, nom, ice, ville FROM fournisseurs WHERE nom ILIKE '%' || $1 || '%'`
	return s.querySuppliers(ctx, partial, name)
}

func (s *PostgresStore) querySuppliers(ctx context.Context, query, name string) LookupResult {
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return Errf(err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id int64
		var nom, ice, ville sql.NullString
		if err := rows.Scan(&id, &nom, &ice, &ville); err != nil {
			return Errf(err)
		}
		records = append(records, models.Record{
			"id": id, "nom": nom.String, "ice": ice.String, "ville": ville.String,
		})
	}
	if err := rows.Err(); err != nil {
		return Errf(err)
	}
	if len(records) == 0 {
		return NotFound()
	}
	return Ok(records)
}

// FindMaterialByCode checks both the IT and office equipment tables, the way
// the inventory schema splits them.
func (s *PostgresStore) FindMaterialByCode(ctx context.Context, code string) LookupResult {
	exact := `
		SELECT id, code_inventaire, designation, marque, modele FROM materiel_informatique WHERE code_inventaire = $1
		UNION ALL
		SELECT id, code_inventaire, designation, marque, modele FROM materiel_bureautique WHERE code_inventaire = $1`
	if res := s.queryMaterials(ctx, exact, code); res.Status != StatusNotFound {
		return res
	}
	partial := `
		SELECT id, code_inventaire, designation, marque, modele FROM materiel_informatique WHERE code_inventaire ILIKE '%' || $1 || '%'
		UNION ALL
		SELECT id, code_inventaire, designation, marque, modele FROM materiel_bureautique WHERE code_inventaire ILIKE '%' || $1 || '%'`
	return s.queryMaterials(ctx, partial, code)
}

func (s *PostgresStore) queryMaterials(ctx context.Context, query, code string) LookupResult {
	rows, err := s.db.QueryContext(ctx, query, code)
	if err != nil {
		return Errf(err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id int64
		var invCode, designation, marque, modele sql.NullString
		if err := rows.Scan(&id, &invCode, &designation, &marque, &modele); err != nil {
			return Errf(err)
		}
		records = append(records, models.Record{
			"id": id, "code": invCode.String, "designation": designation.String,
			"marque": marque.String, "modele": modele.String,
		})
	}
	if err := rows.Err(); err != nil {
		return Errf(err)
	}
	if len(records) == 0 {
		return NotFound()
	}
	return Ok(records)
}

func (s *PostgresStore) FindOrderByNumber(ctx context.Context, number string) LookupResult {
	exact := `
		SELECT id, numero_commande, date_commande, montant, fournisseur_id FROM commande_informatique WHERE numero_commande = $1
		UNION ALL
		SELECT id, numero_commande, date_commande, montant, fournisseur_id FROM commande_bureau WHERE numero_commande = $1`
	if res := s.queryOrders(ctx, exact, number); res.Status != StatusNotFound {
		return res
	}
	partial := `
		SELECT id, numero_commande, date_commande, montant, fournisseur_id FROM commande_informatique WHERE numero_commande ILIKE '%' || $1 || '%'
		UNION ALL
		SELECT id, numero_commande, date_commande, montant, fournisseur_id FROM commande_bureau WHERE numero_commande ILIKE '%' || $1 || '%'`
	return s.queryOrders(ctx, partial, number)
}

func (s *PostgresStore) queryOrders(ctx context.Context, query, number string) LookupResult {
	rows, err := s.db.QueryContext(ctx, query, number)
	if err != nil {
		return Errf(err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id, fournisseurID int64
		var numero sql.NullString
		var dateCommande sql.NullTime
		var montant sql.NullFloat64
		if err := rows.Scan(&id, &numero, &dateCommande, &montant, &fournisseurID); err != nil {
			return Errf(err)
		}
		rec := models.Record{
			"id": id, "numero": numero.String, "montant": montant.Float64,
			"fournisseur_id": fournisseurID,
		}
		if dateCommande.Valid {
			rec["date"] = dateCommande.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return Errf(err)
	}
	if len(records) == 0 {
		return NotFound()
	}
	return Ok(records)
}

func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) LookupResult {
	exact := `SELECT id, username, email, role, is_active FROM users_customuser WHERE username = $1`
	if res := s.queryUsers(ctx, exact, username); res.Status != StatusNotFound {
		return res
	}
	partial := `SELECT id, username, email, role, is_active FROM users_customuser WHERE username ILIKE '%' || $1 || '%'`
	return s.queryUsers(ctx, partial, username)
}

func (s *PostgresStore) queryUsers(ctx context.Context, query, username string) LookupResult {
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return Errf(err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id int64
		var name, email, role sql.NullString
		var active sql.NullBool
		if err := rows.Scan(&id, &name, &email, &role, &active); err != nil {
			return Errf(err)
		}
		records = append(records, models.Record{
			"id": id, "username": name.String, "email": email.String,
			"role": role.String, "active": active.Bool,
		})
	}
	if err := rows.Err(); err != nil {
		return Errf(err)
	}
	if len(records) == 0 {
		return NotFound()
	}
	return Ok(records)
}
