package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// CreateDirectory inserts a directory row for path and any missing
// ancestors in one transaction.
//
// Uses ON CONFLICT(path) DO NOTHING for idempotency: an existing directory
// yields store.AlreadyExists, an existing leaf yields a KindConflict error.
func (s *Store) CreateDirectory(ctx context.Context, path string) (store.Outcome, error) {
	if err := store.Validate(path); err != nil {
		return 0, store.NewError(store.OpCreate, path, store.KindUnknown, err)
	}
	path = store.Clean(path)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, s.fail(path, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	for _, a := range store.Ancestors(path) {
		if _, err := s.ensureDir(ctx, tx, path, a); err != nil {
			return 0, err
		}
	}

	inserted, err := s.ensureDir(ctx, tx, path, path)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, s.fail(path, fmt.Errorf("commit: %w", err))
	}

	if inserted {
		return store.Created, nil
	}
	return store.AlreadyExists, nil
}

// ensureDir inserts a directory row at p, reporting whether a row was added.
// target is the path of the enclosing CreateDirectory call, used in errors.
func (s *Store) ensureDir(ctx context.Context, tx *sql.Tx, target, p string) (bool, error) {
	result, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO nodes (path, dir)
		VALUES (?, 1)
		ON CONFLICT(path) DO NOTHING
	`), p)
	if err != nil {
		return false, s.fail(target, fmt.Errorf("insert %s: %w", p, err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, s.fail(target, fmt.Errorf("rows affected: %w", err))
	}
	if rowsAffected > 0 {
		return true, nil
	}

	// Conflict - a row already exists, make sure it is a directory
	var dir int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT dir FROM nodes WHERE path = ?`), p).Scan(&dir)
	if err != nil {
		return false, s.fail(target, fmt.Errorf("select existing %s: %w", p, err))
	}
	if dir == 0 {
		return false, store.NewError(store.OpCreate, target, store.KindConflict, fmt.Errorf("%s is not a directory", p))
	}
	return false, nil
}

// PutValue writes a leaf row at path. It never replaces a directory.
// Used to seed unrelated data in tests.
func (s *Store) PutValue(ctx context.Context, path, value string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO nodes (path, dir, value)
		VALUES (?, 0, ?)
		ON CONFLICT(path) DO NOTHING
	`), store.Clean(path), value)
	if err != nil {
		return fmt.Errorf("put value: %w", err)
	}
	return nil
}

func (s *Store) fail(path string, err error) error {
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	return store.NewError(store.OpCreate, path, s.classify(err), err)
}
