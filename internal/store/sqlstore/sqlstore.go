package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// dialect captures the differences between the supported SQL engines.
type dialect struct {
	name string

	// collation used for path ordering; byte order in both engines.
	collation string

	// positional rewrites "?" placeholders to "$n".
	positional bool

	classify func(error) (store.Kind, bool)
}

var (
	sqliteDialect = dialect{
		name:      "sqlite3",
		collation: "BINARY",
		classify:  classifySQLite,
	}
	postgresDialect = dialect{
		name:       "pgx",
		collation:  `"C"`,
		positional: true,
		classify:   classifyPostgres,
	}
)

// Store is a store.Client backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ store.Client = (*Store)(nil)

// OpenSQLite creates or opens a SQLite database at path.
// Applies pragmas and the schema; safe to call on an existing file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, dialect: sqliteDialect}
	if err := s.init(ctx, path, applyPragmas); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dialect: postgresDialect}
	if err := s.init(ctx, "postgres", nil); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context, target string, pragmas func(context.Context, *sql.DB) error) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.NewError(store.OpOpen, target, s.classify(err), fmt.Errorf("failed to connect to database: %w", err))
	}
	if pragmas != nil {
		if err := pragmas(ctx, s.db); err != nil {
			return fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return store.NewError(store.OpOpen, target, s.classify(err), fmt.Errorf("failed to apply schema: %w", err))
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// rebind rewrites "?" placeholders for dialects that need "$n".
func (s *Store) rebind(query string) string {
	if !s.dialect.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) classify(err error) store.Kind {
	if kind, ok := s.dialect.classify(err); ok {
		return kind
	}
	if kind, ok := store.ClassifyNetError(err); ok {
		return kind
	}
	return store.KindUnknown
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
