package bootstrap

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// creator ensures every plan entry exists as a directory under root.
type creator struct {
	client      store.Client
	root        string
	concurrency int
	retry       retrier
	logger      *slog.Logger
}

// ensureAll issues one create per entry and returns results in plan order.
//
// After the first fatal entry no further creates are issued. Requests
// already in flight run to completion and keep their own outcome.
//
// The returned error is the first fatal entry error, or the parent
// context's error if the run was cancelled before every entry resolved.
func (c *creator) ensureAll(ctx context.Context, p plan.Plan) ([]EntryResult, error) {
	entries := p.Entries()
	results := make([]EntryResult, len(entries))

	var g errgroup.Group
	g.SetLimit(max(c.concurrency, 1))
	var aborted atomic.Bool

	for i, e := range entries {
		results[i] = EntryResult{Entry: e, Path: e.Path(c.root), Status: StatusSkipped}
		g.Go(func() error {
			if aborted.Load() || ctx.Err() != nil {
				return nil
			}
			results[i] = c.ensure(ctx, e)
			if results[i].err != nil {
				aborted.Store(true)
			}
			return results[i].err
		})
	}

	if err := g.Wait(); err != nil {
		c.logSkipped(results)
		return results, err
	}
	if err := ctx.Err(); err != nil {
		c.logSkipped(results)
		return results, err
	}
	return results, nil
}

func (c *creator) ensure(ctx context.Context, e plan.Entry) EntryResult {
	path := e.Path(c.root)
	log := c.logger.With("entry", string(e), "path", path)
	res := EntryResult{Entry: e, Path: path}

	var outcome store.Outcome
	attempts, err := c.retry.do(ctx, log, func(ctx context.Context) error {
		out, err := c.client.CreateDirectory(ctx, path)
		if err != nil {
			return err
		}
		outcome = out
		return nil
	})
	res.Attempts = attempts

	if err != nil {
		res.Status = StatusFailed
		res.err = &EntryError{Entry: e, Path: path, Op: store.OpCreate, Attempts: attempts, Err: err}
		res.Error = err.Error()
		log.Error("create failed", "attempts", attempts, "kind", string(store.KindOf(err)), "error", err)
		return res
	}

	switch outcome {
	case store.AlreadyExists:
		res.Status = StatusAlreadyExists
	default:
		res.Status = StatusCreated
	}
	log.Info("directory "+string(res.Status), "attempts", attempts)
	return res
}

func (c *creator) logSkipped(results []EntryResult) {
	for _, r := range results {
		if r.Status == StatusSkipped {
			c.logger.Warn("entry skipped", "entry", string(r.Entry), "path", r.Path)
		}
	}
}
