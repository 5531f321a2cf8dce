package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hmlegal/lexintake/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// UploadsDir returns the directory where uploaded documents are stored.
func UploadsDir(baseDir string) string {
	return filepath.Join(baseDir, "uploads")
}

// ExportsDir returns the directory where case exports are written.
func ExportsDir(baseDir string) string {
	return filepath.Join(baseDir, "exports")
}

// Init initializes the SQLite database at baseDir/lexintake.db and creates
// the uploads and exports subdirectories.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.lexintake.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	for _, dir := range []string{UploadsDir(baseDir), ExportsDir(baseDir)} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Base(dir), err)
		}
		_ = os.Chmod(dir, 0700)
	}

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "lexintake.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
// Call after Init if you need to tune pool behavior for contention.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS cases (
		  id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		  created_at           INTEGER NOT NULL,
		  full_name            TEXT NOT NULL DEFAULT '',
		  email                TEXT NOT NULL DEFAULT '',
		  phone                TEXT NOT NULL DEFAULT '',
		  country_citizenship  TEXT NOT NULL DEFAULT '',
		  current_city_country TEXT NOT NULL DEFAULT '',
		  dob                  TEXT NOT NULL DEFAULT '',
		  case_type            TEXT NOT NULL DEFAULT '',
		  in_us                TEXT NOT NULL DEFAULT '',
		  current_status       TEXT NOT NULL DEFAULT '',
		  prior_applications   TEXT NOT NULL DEFAULT '',
		  arrest_history       TEXT NOT NULL DEFAULT '',
		  deported             TEXT NOT NULL DEFAULT '',
		  overstayed           TEXT NOT NULL DEFAULT '',
		  background_notes     TEXT NOT NULL DEFAULT '',
		  urgency              TEXT NOT NULL DEFAULT '',
		  communication        TEXT NOT NULL DEFAULT '',
		  referral_source      TEXT NOT NULL DEFAULT '',
		  summary              TEXT NOT NULL DEFAULT '',
		  docs_requested       INTEGER NOT NULL DEFAULT 1,
		  docs_received        TEXT NOT NULL DEFAULT 'None',
		  status               TEXT NOT NULL DEFAULT 'New Lead',
		  next_action          TEXT NOT NULL DEFAULT 'Review intake',
		  notes                TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_cases_created
		ON cases(created_at DESC, id DESC);

		CREATE TABLE IF NOT EXISTS documents (
		  id          INTEGER PRIMARY KEY AUTOINCREMENT,
		  case_id     INTEGER NOT NULL REFERENCES cases(id),
		  filename    TEXT NOT NULL,
		  uploaded_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_case
		ON documents(case_id, uploaded_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
