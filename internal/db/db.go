// Package db stores the target application's accounts and sessions in a
// single SQLCipher database.
package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxOpenConns caps open connections. SQLite is single-writer, so high
	// connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns = 2
)

// Store wraps the sql.DB connection and provides access to the queries.
type Store struct {
	db      *sql.DB
	queries *Queries
}

// DB returns the underlying sql.DB for direct access when needed
func (s *Store) DB() *sql.DB {
	return s.db
}

// Queries returns the typed account and session queries.
func (s *Store) Queries() *Queries {
	return s.queries
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteCommonParams() string {
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendSQLiteParams(dsn, params string) string {
	if params == "" {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

func cipherParams(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	return fmt.Sprintf("_pragma_key=x'%s'&_pragma_cipher_page_size=4096", hex.EncodeToString(key))
}

// Open opens (creating if needed) the database file at path and applies the
// schema. A non-empty key encrypts the file with SQLCipher.
func Open(ctx context.Context, path string, key []byte) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := appendSQLiteParams(path, sqliteCommonParams())
	dsn = appendSQLiteParams(dsn, cipherParams(key))
	return open(ctx, dsn)
}

// OpenInMemory opens a named shared-cache in-memory database. Connections
// opened with the same name see the same data until the last one closes.
func OpenInMemory(ctx context.Context, name string) (*Store, error) {
	if name == "" {
		name = "login-suite"
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	return open(ctx, dsn)
}

func open(ctx context.Context, dsn string) (*Store, error) {
	sqlDB, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	var sqliteVersion string
	if err := sqlDB.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to verify database: %w", err)
	}

	// A wrong key surfaces here: the schema statements read page 1.
	if _, err := sqlDB.ExecContext(ctx, Schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: sqlDB, queries: New(sqlDB)}, nil
}
