package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// catalogPragmas are applied on every open. The CLI may read history from
// one process while watch or build --save writes from another, so the
// catalog runs in WAL mode and waits on a locked file instead of failing.
var catalogPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// migration upgrades a catalog from version-1 to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// catalogMigrations run in order against catalogs whose user_version is
// below their version. The base table comes from schema.sql.
var catalogMigrations = []migration{
	{
		version: 1,
		name:    "index builds by definition name",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_builds_name ON builds(name, seq)`,
	},
}

// catalogVersion is the user_version of an up-to-date catalog.
var catalogVersion = catalogMigrations[len(catalogMigrations)-1].version

// Store is the SQLite catalog of saved builds.
type Store struct {
	db  *sql.DB
	ids IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUIDv7 id generator, e.g. with a
// FixedGenerator in tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// Open opens the catalog at path, creating it when missing, and brings
// its schema up to date. Opening an existing catalog again is a no-op.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := prepareCatalog(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func prepareCatalog(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to catalog: %w", err)
	}

	// Saves are read-then-insert; one connection keeps them serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range catalogPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create builds table: %w", err)
	}
	return migrateCatalog(db)
}

// migrateCatalog runs the migrations the catalog has not seen yet. A
// catalog written by a newer cypherbuild is left untouched.
func migrateCatalog(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read catalog version: %w", err)
	}
	if version > catalogVersion {
		return fmt.Errorf("catalog version %d is newer than supported version %d", version, catalogVersion)
	}

	for _, m := range catalogMigrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("catalog migration %d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("failed to record catalog version %d: %w", m.version, err)
		}
	}
	return nil
}

// Close closes the catalog.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pragma returns the current value of a pragma as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to read pragma %s: %w", name, err)
	}
	return value, nil
}
