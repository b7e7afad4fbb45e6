// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parcinfo-verifier/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient holds the pool for the ParcInfo inventory database. The
// schema (fournisseurs, materiel_*, commande_*, users_customuser) is owned
// by the chatbot backend; the verifier only ever reads from it.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool against the inventory database. Connectivity is
// not checked here; callers ping with their own retry policy.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Lookups are short point reads; recycle connections so a failover on
	// the inventory side is picked up within minutes.
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping verifies the inventory database is reachable.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB exposes the pool for the ground-truth store.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
