package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/projectatomic/commissaire-bootstrap/internal/config"
	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// Options configure a Bootstrapper. The zero value of every field but
// RootPrefix has a usable default.
type Options struct {
	// RootPrefix is the path every plan entry is created under.
	RootPrefix string

	// StoreName labels the report (for example "etcd").
	StoreName string

	// RequestTimeout bounds each individual store request.
	RequestTimeout time.Duration

	// Concurrency is the number of creates in flight. 1 creates the
	// entries strictly in plan order.
	Concurrency int

	Retry RetryPolicy

	Logger *slog.Logger
	RunIDs RunIDGenerator

	// After waits between retries. Defaults to time.After.
	After func(time.Duration) <-chan time.Time
}

// OptionsFromConfig maps the loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RootPrefix:     cfg.RootPrefix,
		StoreName:      string(cfg.Store.Backend),
		RequestTimeout: cfg.RequestTimeout,
		Concurrency:    cfg.Concurrency,
		Retry: RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}
}

// Bootstrapper creates and verifies the namespace in one store.
//
// Thread-safety: Run and Tree may be called concurrently; all state lives
// in the store client, which must be safe for concurrent use.
type Bootstrapper struct {
	client store.Client
	opts   Options
}

// New creates a Bootstrapper over client.
func New(client store.Client, opts Options) (*Bootstrapper, error) {
	if client == nil {
		return nil, fmt.Errorf("bootstrap: nil store client")
	}
	opts.RootPrefix = store.Clean(opts.RootPrefix)
	if opts.RootPrefix == "" {
		return nil, fmt.Errorf("bootstrap: root prefix is required")
	}
	if err := store.Validate(opts.RootPrefix); err != nil {
		return nil, fmt.Errorf("bootstrap: root prefix: %w", err)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RunIDs == nil {
		opts.RunIDs = UUIDv7Generator{}
	}
	if opts.After == nil {
		opts.After = time.After
	}
	return &Bootstrapper{client: client, opts: opts}, nil
}

func (b *Bootstrapper) retrier() retrier {
	return retrier{policy: b.opts.Retry, timeout: b.opts.RequestTimeout, after: b.opts.After}
}

// Run creates every entry of p under the root prefix, then verifies the
// tree. The returned report is never nil; it is complete up to the phase
// that failed.
func (b *Bootstrapper) Run(ctx context.Context, p plan.Plan) (*Report, error) {
	report := &Report{
		RunID:      b.opts.RunIDs.Generate(),
		Store:      b.opts.StoreName,
		RootPrefix: b.opts.RootPrefix,
		Phase:      PhaseStart,
	}
	log := b.opts.Logger.With("run_id", report.RunID, "root", b.opts.RootPrefix)
	log.Info("bootstrap starting",
		"store", b.opts.StoreName,
		"entries", p.Len(),
		"concurrency", b.opts.Concurrency,
	)

	report.enter(PhaseCreating)
	c := &creator{
		client:      b.client,
		root:        b.opts.RootPrefix,
		concurrency: b.opts.Concurrency,
		retry:       b.retrier(),
		logger:      log,
	}
	results, err := c.ensureAll(ctx, p)
	report.Entries = results
	if err != nil {
		report.fail(PhaseCreating, err)
		log.Error("bootstrap failed", "phase", PhaseCreating, "error", err)
		return report, err
	}

	report.enter(PhaseVerifying)
	v := &verifier{client: b.client, root: b.opts.RootPrefix, retry: b.retrier(), logger: log}
	tree, err := v.verify(ctx, p)
	report.Tree = tree
	if err != nil {
		report.fail(PhaseVerifying, err)
		log.Error("bootstrap failed", "phase", PhaseVerifying, "error", err)
		return report, err
	}

	report.enter(PhaseDone)
	log.Info("bootstrap complete",
		"created", report.Count(StatusCreated),
		"already_present", report.Count(StatusAlreadyExists),
		"nodes", len(tree),
	)
	return report, nil
}

// Tree lists the namespace under the root prefix without creating anything.
func (b *Bootstrapper) Tree(ctx context.Context) ([]store.Node, error) {
	v := &verifier{client: b.client, root: b.opts.RootPrefix, retry: b.retrier(), logger: b.opts.Logger}
	return v.list(ctx)
}

// RootPrefix returns the normalized root prefix.
func (b *Bootstrapper) RootPrefix() string {
	return b.opts.RootPrefix
}
