package bootstrap

import (
	"context"
	"log/slog"

	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// verifier lists the namespace after creation. It never writes.
type verifier struct {
	client store.Client
	root   string
	retry  retrier
	logger *slog.Logger
}

// list returns the recursive tree under root.
func (v *verifier) list(ctx context.Context) ([]store.Node, error) {
	log := v.logger.With("path", v.root)

	var nodes []store.Node
	attempts, err := v.retry.do(ctx, log, func(ctx context.Context) error {
		out, err := v.client.ListRecursive(ctx, v.root)
		if err != nil {
			return err
		}
		nodes = out
		return nil
	})
	if err != nil {
		log.Error("list failed", "attempts", attempts, "kind", string(store.KindOf(err)), "error", err)
		return nil, &PhaseError{Phase: PhaseVerifying, Op: store.OpList, Path: v.root, Attempts: attempts, Err: err}
	}

	log.Debug("listed namespace", "nodes", len(nodes), "attempts", attempts)
	return nodes, nil
}

// verify lists the tree and checks every planned path is a directory in it.
func (v *verifier) verify(ctx context.Context, p plan.Plan) ([]store.Node, error) {
	nodes, err := v.list(ctx)
	if err != nil {
		return nil, err
	}

	if missing := Missing(p.Paths(v.root), nodes); len(missing) > 0 {
		v.logger.Error("namespace incomplete", "missing", missing)
		return nodes, &IncompleteError{Missing: missing}
	}
	return nodes, nil
}

// Missing returns the paths that do not appear in nodes as directories,
// in the order given.
func Missing(paths []string, nodes []store.Node) []string {
	dirs := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Dir {
			dirs[n.Path] = true
		}
	}

	var missing []string
	for _, p := range paths {
		if !dirs[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
