package db

import (
	"database/sql"
	"fmt"
	"io"
)

// SchemaSQL is the complete SQLite schema for fresh installs. It reflects
// the state after every migration has run.
//
// Repository tests build their databases from GetSchemaSQL(), so a column
// referenced by repository code but missing here fails the tests with
// "no such column" instead of failing in production.
//
// When adding a column or table:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Update the gorm entities in internal/adapters/persistence (PostgreSQL
//     deployments are migrated from those)
const SchemaSQL = `
-- Users
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL CHECK(role IN ('ADMIN', 'MANAGER', 'WORKER')) DEFAULT 'WORKER',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Work orders
CREATE TABLE IF NOT EXISTS work_orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_number TEXT NOT NULL UNIQUE,
	product_name TEXT NOT NULL,
	product_code TEXT,
	quantity INTEGER NOT NULL CHECK(quantity >= 1),
	due_date DATETIME NOT NULL,
	priority TEXT NOT NULL CHECK(priority IN ('LOW', 'MEDIUM', 'HIGH', 'URGENT')) DEFAULT 'MEDIUM',
	status TEXT NOT NULL CHECK(status IN ('PENDING', 'IN_PROGRESS', 'COMPLETED')) DEFAULT 'PENDING',
	instructions TEXT,
	progress INTEGER NOT NULL CHECK(progress BETWEEN 0 AND 100) DEFAULT 0,
	assigned_to_id INTEGER,
	actual_quantity INTEGER,
	notes TEXT,
	started_at DATETIME,
	completed_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (assigned_to_id) REFERENCES users(id) ON DELETE SET NULL
);

-- Issues
CREATE TABLE IF NOT EXISTS issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	work_order_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	priority TEXT NOT NULL CHECK(priority IN ('LOW', 'MEDIUM', 'HIGH', 'URGENT')) DEFAULT 'MEDIUM',
	status TEXT NOT NULL CHECK(status IN ('OPEN', 'IN_PROGRESS', 'RESOLVED', 'CLOSED')) DEFAULT 'OPEN',
	type TEXT,
	resolution TEXT,
	reported_by_id INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	resolved_at DATETIME,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE CASCADE,
	FOREIGN KEY (reported_by_id) REFERENCES users(id)
);

-- Work logs (append-only)
CREATE TABLE IF NOT EXISTS work_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	work_order_id INTEGER NOT NULL,
	worker_id INTEGER NOT NULL,
	action TEXT NOT NULL, -- models.LogAction, validated by the service
	notes TEXT,
	progress INTEGER CHECK(progress IS NULL OR progress BETWEEN 0 AND 100),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE CASCADE,
	FOREIGN KEY (worker_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_work_orders_status ON work_orders(status);
CREATE INDEX IF NOT EXISTS idx_work_orders_assigned_to ON work_orders(assigned_to_id);
CREATE INDEX IF NOT EXISTS idx_work_orders_created_at ON work_orders(created_at);
CREATE INDEX IF NOT EXISTS idx_issues_work_order ON issues(work_order_id);
CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
CREATE INDEX IF NOT EXISTS idx_issues_reported_by ON issues(reported_by_id);
CREATE INDEX IF NOT EXISTS idx_work_logs_work_order ON work_logs(work_order_id);
CREATE INDEX IF NOT EXISTS idx_work_logs_worker ON work_logs(worker_id);
CREATE INDEX IF NOT EXISTS idx_work_logs_created_at ON work_logs(created_at);
`

const schemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// InitSchema brings a SQLite database up to date. A fresh database gets
// SchemaSQL directly with every migration marked as applied; a database
// created before versioning, or one with pending migrations, is migrated.
func InitSchema(db *sql.DB, out io.Writer) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("failed to check schema_version: %w", err)
	}

	if tableCount == 0 {
		var legacyCount int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('users', 'work_orders')").Scan(&legacyCount)
		if err != nil {
			return fmt.Errorf("failed to check for existing tables: %w", err)
		}
		if legacyCount > 0 {
			return RunMigrations(db, out)
		}
		return createFresh(db)
	}

	return RunMigrations(db, out)
}

func createFresh(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	for _, m := range migrations {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return tx.Commit()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
