package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/projectatomic/commissaire-bootstrap/internal/bootstrap"
	"github.com/projectatomic/commissaire-bootstrap/internal/plan"
	"github.com/projectatomic/commissaire-bootstrap/internal/store"
	"github.com/projectatomic/commissaire-bootstrap/internal/testutil"
)

// DefaultRootPrefix is used when a scenario names none.
const DefaultRootPrefix = "commissaire"

// retryPolicy is fixed so golden reports do not depend on configuration.
var retryPolicy = bootstrap.RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    time.Second,
}

// Run executes a scenario and evaluates its assertions.
//
// Each scenario runs against a fresh in-memory store. The returned error
// is reserved for scenarios that cannot be executed at all (an invalid
// plan or seed path); bootstrap failures are recorded in Result.Err.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	p, err := scenarioPlan(scenario)
	if err != nil {
		return nil, err
	}

	fs := testutil.NewFaultStore()
	if err := seed(ctx, fs, scenario.Setup); err != nil {
		return nil, err
	}
	injectFaults(fs, scenario.Faults)

	clock := testutil.NewInstantClock()
	opts := bootstrap.Options{
		RootPrefix:     scenario.RootPrefix,
		StoreName:      "memory",
		RequestTimeout: time.Second,
		Concurrency:    scenario.Concurrency,
		Retry:          retryPolicy,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		RunIDs:         testutil.FixedRunID(scenario.RunID),
		After:          clock.After,
	}
	if opts.RootPrefix == "" {
		opts.RootPrefix = DefaultRootPrefix
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 1
	}

	b, err := bootstrap.New(fs, opts)
	if err != nil {
		return nil, err
	}

	runs := scenario.Runs
	if runs == 0 {
		runs = 1
	}

	result := NewResult()
	result.Store = fs
	for i := 0; i < runs; i++ {
		report, err := b.Run(ctx, p)
		result.Reports = append(result.Reports, report)
		result.Err = err
	}
	result.Delays = clock.Delays()

	for _, a := range scenario.Assertions {
		if err := check(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func scenarioPlan(s *Scenario) (plan.Plan, error) {
	if s.Entries == nil {
		return plan.Default(), nil
	}
	p, err := plan.New(s.Entries...)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return p, nil
}

func seed(ctx context.Context, fs *testutil.FaultStore, setup Setup) error {
	for _, d := range setup.Directories {
		if _, err := fs.Memory.CreateDirectory(ctx, d); err != nil {
			return fmt.Errorf("seed directory %s: %w", d, err)
		}
	}
	for _, v := range setup.Values {
		if err := store.Validate(v); err != nil {
			return fmt.Errorf("seed value %s: %w", v, err)
		}
		fs.PutValue(v)
	}
	return nil
}

func injectFaults(fs *testutil.FaultStore, faults []Fault) {
	for _, f := range faults {
		kind, _ := parseKind(f.Kind)
		msg := f.Message
		if msg == "" {
			msg = "injected fault"
		}
		times := f.Times
		if times == 0 {
			times = 1
		}

		for i := 0; i < times; i++ {
			switch f.Op {
			case store.OpCreate:
				fs.FailCreate(f.Path, store.NewError(store.OpCreate, f.Path, kind, errors.New(msg)))
			case store.OpList:
				fs.FailList(store.NewError(store.OpList, f.Path, kind, errors.New(msg)))
			}
		}
	}
}
