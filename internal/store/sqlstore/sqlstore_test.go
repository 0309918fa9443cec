package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		if i == 0 {
			if _, err := s.CreateDirectory(ctx, "commissaire/hosts"); err != nil {
				t.Fatalf("CreateDirectory() failed: %v", err)
			}
		}
		s.Close()
	}

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("final OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	out, err := s.CreateDirectory(ctx, "commissaire/hosts")
	if err != nil {
		t.Fatalf("CreateDirectory() failed: %v", err)
	}
	if out != store.AlreadyExists {
		t.Errorf("outcome = %v, want %v (data lost across reopen)", out, store.AlreadyExists)
	}
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "/nonexistent/dir/test.db")
	if err == nil {
		t.Fatal("expected error for invalid path, got nil")
	}
	if kind := store.KindOf(err); kind != store.KindUnreachable {
		t.Errorf("kind = %s, want %s", kind, store.KindUnreachable)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Store{dialect: sqliteDialect}
	pg := &Store{dialect: postgresDialect}

	q := "SELECT dir FROM nodes WHERE path = ? AND dir = ?"
	if got := sqlite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}
	want := "SELECT dir FROM nodes WHERE path = $1 AND dir = $2"
	if got := pg.rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}
