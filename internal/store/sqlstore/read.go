package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// ListRecursive returns every row below path ordered by path in byte order.
//
// Returns an empty slice (not nil) for an existing directory with no children.
func (s *Store) ListRecursive(ctx context.Context, path string) ([]store.Node, error) {
	path = store.Clean(path)

	var dir int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT dir FROM nodes WHERE path = ?`), path).Scan(&dir)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewError(store.OpList, path, store.KindNotFound, nil)
	}
	if err != nil {
		return nil, store.NewError(store.OpList, path, s.classify(err), fmt.Errorf("query root: %w", err))
	}
	if dir == 0 {
		return nil, store.NewError(store.OpList, path, store.KindConflict, fmt.Errorf("not a directory"))
	}

	prefix := path + "/"
	rows, err := s.db.QueryContext(ctx, s.rebind(fmt.Sprintf(`
		SELECT path, dir
		FROM nodes
		WHERE substr(path, 1, ?) = ?
		ORDER BY path COLLATE %s ASC
	`, s.dialect.collation)), utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, store.NewError(store.OpList, path, s.classify(err), fmt.Errorf("query nodes: %w", err))
	}
	defer rows.Close()

	nodes := []store.Node{}
	for rows.Next() {
		var (
			p string
			d int
		)
		if err := rows.Scan(&p, &d); err != nil {
			return nil, store.NewError(store.OpList, path, store.KindUnknown, fmt.Errorf("scan node: %w", err))
		}
		nodes = append(nodes, store.Node{Path: p, Dir: d != 0})
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewError(store.OpList, path, s.classify(err), fmt.Errorf("iterate nodes: %w", err))
	}

	return nodes, nil
}
