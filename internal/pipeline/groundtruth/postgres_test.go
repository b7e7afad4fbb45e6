// internal/pipeline/groundtruth/postgres_test.go
package groundtruth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"parcinfo-verifier/internal/common/logger"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestFindSupplierByName_ExactMatch(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`SELECT id, nom, ice, ville FROM fournisseurs WHERE nom = \$1`).
		WithArgs("ATLAS MEDIA").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nom", "ice", "ville"}).
			AddRow(7, "ATLAS MEDIA", "001525963000078", "Casablanca"))

	res := store.FindSupplierByName(context.Background(), "ATLAS MEDIA")

	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, "ATLAS MEDIA", res.Records[0]["nom"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSupplierByName_FallsBackToPartial(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`SELECT id, nom, ice, ville FROM fournisseurs WHERE nom = \$1`).
		WithArgs("ATLAS").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nom", "ice", "ville"}))
	mock.ExpectQuery(`SELECT id, nom, ice, ville FROM fournisseurs WHERE nom ILIKE`).
		WithArgs("ATLAS").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nom", "ice", "ville"}).
			AddRow(7, "ATLAS MEDIA", "001525963000078", "Casablanca"))

	res := store.FindSupplierByName(context.Background(), "ATLAS")

	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSupplierByName_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`WHERE nom = \$1`).
		WithArgs("GHOST").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nom", "ice", "ville"}))
	mock.ExpectQuery(`WHERE nom ILIKE`).
		WithArgs("GHOST").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nom", "ice", "ville"}))

	res := store.FindSupplierByName(context.Background(), "GHOST")

	assert.Equal(t, StatusNotFound, res.Status)
	assert.Empty(t, res.Records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSupplierByName_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`WHERE nom = \$1`).
		WithArgs("ATLAS").
		WillReturnError(sql.ErrConnDone)

	res := store.FindSupplierByName(context.Background(), "ATLAS")

	assert.Equal(t, StatusError, res.Status)
	assert.Error(t, res.Err)
}

func TestFindMaterialByCode_SearchesBothTables(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`FROM materiel_informatique WHERE code_inventaire = \$1\s+UNION ALL`).
		WithArgs("CD99").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code_inventaire", "designation", "marque", "modele"}).
			AddRow(3, "CD99", "Poste de travail", "Dell", "OptiPlex"))

	res := store.FindMaterialByCode(context.Background(), "CD99")

	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, "CD99", res.Records[0]["code"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrderByNumber_ReturnsOrderFields(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`FROM commande_informatique WHERE numero_commande = \$1`).
		WithArgs("BC25").
		WillReturnRows(sqlmock.NewRows([]string{"id", "numero_commande", "date_commande", "montant", "fournisseur_id"}).
			AddRow(12, "BC25", nil, 15000.50, 7))

	res := store.FindOrderByNumber(context.Background(), "BC25")

	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, "BC25", res.Records[0]["numero"])
	assert.Equal(t, 15000.50, res.Records[0]["montant"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByUsername_CaseInsensitiveFallback(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewPostgresStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(`FROM users_customuser WHERE username = \$1`).
		WithArgs("GESTIONNAIRE_INFO").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "role", "is_active"}))
	mock.ExpectQuery(`FROM users_customuser WHERE username ILIKE`).
		WithArgs("GESTIONNAIRE_INFO").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "role", "is_active"}).
			AddRow(2, "gestionnaire_info", "gi@parcinfo.ma", "gestionnaire", true))

	res := store.FindUserByUsername(context.Background(), "GESTIONNAIRE_INFO")

	assert.Equal(t, StatusOK, res.Status)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, "gestionnaire_info", res.Records[0]["username"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
