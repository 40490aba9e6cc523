// Package cloud implements the relational persistence backend. Every
// read and write is scoped by an explicit tenant identifier, and the
// single-active-booking invariant is backed by a partial unique index
// whose violation is mapped to a typed domain error.
package cloud

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the relational connection shared by all tenants.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// New opens the database at path and runs migrations.
func New(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, path: path, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			unit_id TEXT NOT NULL,
			guest_name TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			ended_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (unit_id) REFERENCES units(id)
		)`,

		// One active booking per unit, per tenant.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_one_active
			ON bookings(tenant_id, unit_id) WHERE is_active = 1`,

		`CREATE INDEX IF NOT EXISTS idx_units_tenant ON units(tenant_id, is_deleted)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tenant_active ON bookings(tenant_id, is_active)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Tenant returns a view of the database bound to one tenant. All
// operations on the view are scoped to that tenant's rows.
func (db *DB) Tenant(tenantID string) *TenantStore {
	return &TenantStore{db: db, tenant: tenantID}
}

// TenantStore is the tenant-bound operation set. It satisfies
// store.Store.
type TenantStore struct {
	db     *DB
	tenant string
}

// TenantID returns the tenant this view is bound to.
func (s *TenantStore) TenantID() string {
	return s.tenant
}
