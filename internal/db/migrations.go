package db

import (
	"database/sql"
	"fmt"
	"io"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_core_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_version_columns",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_completion_details_to_work_orders",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "add_type_resolution_updated_at_to_issues",
		Up:      migrationV4,
	},
	{
		Version: 5,
		Name:    "add_lookup_indexes",
		Up:      migrationV5,
	},
}

// LatestVersion is the version a fully migrated database reports.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the highest applied migration, or 0 when the
// database has never been migrated.
func CurrentVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(schemaVersionSQL); err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}
	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
// Progress is written to out.
func RunMigrations(db *sql.DB, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	currentVersion, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Fprintf(out, "Running migration %d: %s\n", migration.Version, migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Fprintf(out, "✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 creates the four tables in their first released shape
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('ADMIN', 'MANAGER', 'WORKER')) DEFAULT 'WORKER',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = tx.Exec(`
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
			started_at DATETIME,
			completed_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (assigned_to_id) REFERENCES users(id) ON DELETE SET NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create work_orders table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			work_order_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT NOT NULL CHECK(priority IN ('LOW', 'MEDIUM', 'HIGH', 'URGENT')) DEFAULT 'MEDIUM',
			status TEXT NOT NULL CHECK(status IN ('OPEN', 'IN_PROGRESS', 'RESOLVED', 'CLOSED')) DEFAULT 'OPEN',
			reported_by_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			resolved_at DATETIME,
			FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE CASCADE,
			FOREIGN KEY (reported_by_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create issues table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS work_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			work_order_id INTEGER NOT NULL,
			worker_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			notes TEXT,
			progress INTEGER CHECK(progress IS NULL OR progress BETWEEN 0 AND 100),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (work_order_id) REFERENCES work_orders(id) ON DELETE CASCADE,
			FOREIGN KEY (worker_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create work_logs table: %w", err)
	}

	return nil
}

// migrationV2 adds optimistic-lock counters to work orders and issues
func migrationV2(tx *sql.Tx) error {
	if _, err := tx.Exec(`ALTER TABLE work_orders ADD COLUMN version INTEGER NOT NULL DEFAULT 1`); err != nil {
		return fmt.Errorf("failed to add version to work_orders: %w", err)
	}
	if _, err := tx.Exec(`ALTER TABLE issues ADD COLUMN version INTEGER NOT NULL DEFAULT 1`); err != nil {
		return fmt.Errorf("failed to add version to issues: %w", err)
	}
	return nil
}

// migrationV3 records produced quantity and notes on completion
func migrationV3(tx *sql.Tx) error {
	if _, err := tx.Exec(`ALTER TABLE work_orders ADD COLUMN actual_quantity INTEGER`); err != nil {
		return fmt.Errorf("failed to add actual_quantity: %w", err)
	}
	if _, err := tx.Exec(`ALTER TABLE work_orders ADD COLUMN notes TEXT`); err != nil {
		return fmt.Errorf("failed to add notes: %w", err)
	}
	return nil
}

func migrationV4(tx *sql.Tx) error {
	for _, stmt := range []string{
		`ALTER TABLE issues ADD COLUMN type TEXT`,
		`ALTER TABLE issues ADD COLUMN resolution TEXT`,
		// SQLite rejects non-constant defaults in ADD COLUMN.
		`ALTER TABLE issues ADD COLUMN updated_at DATETIME`,
		`UPDATE issues SET updated_at = COALESCE(resolved_at, created_at)`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to extend issues table: %w", err)
		}
	}
	return nil
}

func migrationV5(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_work_orders_status ON work_orders(status);
		CREATE INDEX IF NOT EXISTS idx_work_orders_assigned_to ON work_orders(assigned_to_id);
		CREATE INDEX IF NOT EXISTS idx_work_orders_created_at ON work_orders(created_at);
		CREATE INDEX IF NOT EXISTS idx_issues_work_order ON issues(work_order_id);
		CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);
		CREATE INDEX IF NOT EXISTS idx_issues_reported_by ON issues(reported_by_id);
		CREATE INDEX IF NOT EXISTS idx_work_logs_work_order ON work_logs(work_order_id);
		CREATE INDEX IF NOT EXISTS idx_work_logs_worker ON work_logs(worker_id);
		CREATE INDEX IF NOT EXISTS idx_work_logs_created_at ON work_logs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
