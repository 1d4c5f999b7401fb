package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created in the data directory.
const FileName = "proxysort.db"

// busyTimeoutMillis is how long a connection waits on a locked database.
const busyTimeoutMillis = 5000

// LinkDB provides SQLite-based storage for mappings, category links, the
// Unknown Bucket and scan reports.
type LinkDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures LinkDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers don't block the writer.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a LinkDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LinkDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scan or import first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; pragmas below apply to this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ldb := &LinkDB{
		db:     db,
		dbPath: dbPath,
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis),
		"PRAGMA foreign_keys=ON",
	}
	if opts.EnableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := ldb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ldb, nil
}

// Close closes the database connection.
func (ldb *LinkDB) Close() error {
	return ldb.db.Close()
}

// Path returns the database file path.
func (ldb *LinkDB) Path() string {
	return ldb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (ldb *LinkDB) createTables() error {
	schema := `
	-- Every category that was ever tracked or received a link
	CREATE TABLE IF NOT EXISTS categories (
		name TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Deduplicated link set per category; id keeps insertion order
	CREATE TABLE IF NOT EXISTS category_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL REFERENCES categories(name),
		url TEXT NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(category, url)
	);

	CREATE INDEX IF NOT EXISTS idx_links_category ON category_links(category);

	-- Operator-maintained IP to category mapping
	CREATE TABLE IF NOT EXISTS ip_mappings (
		ip TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_mappings_category ON ip_mappings(category);

	-- Links at IPs that have no category yet
	CREATE TABLE IF NOT EXISTS unknown_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ip TEXT NOT NULL,
		url TEXT NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(ip, url)
	);

	CREATE INDEX IF NOT EXISTS idx_unknown_ip ON unknown_links(ip);

	-- Rendered results of past scans
	CREATE TABLE IF NOT EXISTS scan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		total INTEGER NOT NULL DEFAULT 0,
		categorized INTEGER NOT NULL DEFAULT 0,
		unknown INTEGER NOT NULL DEFAULT 0,
		report_text TEXT NOT NULL,
		report_json TEXT NOT NULL,
		digest TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON scan_reports(timestamp);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// withTx runs fn in a transaction, committing on success.
func (ldb *LinkDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ldb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureCategory(ctx context.Context, ex execer, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyCategory
	}
	if _, err := ex.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("failed to record category %s: %w", name, err)
	}
	return nil
}

func insertLink(ctx context.Context, ex execer, category, url string) (bool, error) {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO category_links (category, url) VALUES (?, ?) ON CONFLICT(category, url) DO NOTHING`,
		category, url)
	if err != nil {
		return false, fmt.Errorf("failed to append link: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to append link: %w", err)
	}
	return n == 1, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
