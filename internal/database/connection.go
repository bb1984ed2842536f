package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens the database for driver and makes sure the schema exists.
// For sqlite the dsn is a file path; its parent directory is created if missing.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		return connectSQLite(dsn)
	case DriverPostgres:
		return connectPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func connectSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := InitializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectPostgres(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(DriverPostgres, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := InitializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitializeSchema creates the tables if they don't exist.
// The statements are valid for both sqlite and postgres.
func InitializeSchema(db *sqlx.DB) error {
	// The primary key on (learner_id, item_id) is what makes the upsert safe.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS review_progress (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			stability DOUBLE PRECISION NOT NULL DEFAULT 0,
			difficulty DOUBLE PRECISION NOT NULL DEFAULT 5,
			repetition_count INTEGER NOT NULL DEFAULT 0,
			last_review_at BIGINT NOT NULL,
			next_review_at BIGINT NOT NULL,
			state TEXT NOT NULL DEFAULT 'new',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create review_progress table")
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_review_progress_due
		ON review_progress (learner_id, next_review_at)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create review_progress index")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS review_sessions (
			id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			item_ids TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create review_sessions table")
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_review_sessions_status
		ON review_sessions (status, created_at)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create review_sessions index")
	}

	return nil
}
