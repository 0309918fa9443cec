package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// FaultStore wraps a store.Memory and injects scripted failures.
//
// Failures are queued per path and consumed one per call, so a test can
// script "fail twice with a transient error, then succeed". Every call is
// counted, including those that failed.
//
// Thread-safety: All methods are safe for concurrent use.
type FaultStore struct {
	*store.Memory

	mu          sync.Mutex
	createFails map[string][]error
	listFails   []error
	creates     map[string]int
	lists       int
	latency     time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

// NewFaultStore wraps a fresh in-memory store.
func NewFaultStore() *FaultStore {
	return &FaultStore{
		Memory:      store.NewMemory(),
		createFails: make(map[string][]error),
		creates:     make(map[string]int),
	}
}

// FailCreate queues errs for successive CreateDirectory calls on path.
func (f *FaultStore) FailCreate(path string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createFails[path] = append(f.createFails[path], errs...)
}

// FailList queues errs for successive ListRecursive calls.
func (f *FaultStore) FailList(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listFails = append(f.listFails, errs...)
}

// SetLatency makes every create wait d (or until its context ends).
func (f *FaultStore) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

// CreateDirectory implements store.Client.
func (f *FaultStore) CreateDirectory(ctx context.Context, path string) (store.Outcome, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.creates[path]++
	var err error
	if q := f.createFails[path]; len(q) > 0 {
		err, f.createFails[path] = q[0], q[1:]
	}
	latency := f.latency
	f.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return 0, store.NewError(store.OpCreate, path, store.KindOf(ctx.Err()), ctx.Err())
		case <-time.After(latency):
		}
	}
	if err != nil {
		return 0, err
	}
	return f.Memory.CreateDirectory(ctx, path)
}

// ListRecursive implements store.Client.
func (f *FaultStore) ListRecursive(ctx context.Context, path string) ([]store.Node, error) {
	f.mu.Lock()
	f.lists++
	var err error
	if len(f.listFails) > 0 {
		err, f.listFails = f.listFails[0], f.listFails[1:]
	}
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return f.Memory.ListRecursive(ctx, path)
}

// Creates returns how many CreateDirectory calls addressed path.
func (f *FaultStore) Creates(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates[path]
}

// TotalCreates returns the number of CreateDirectory calls.
func (f *FaultStore) TotalCreates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.creates {
		total += n
	}
	return total
}

// Lists returns the number of ListRecursive calls.
func (f *FaultStore) Lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

// MaxInFlight returns the highest number of concurrent creates observed.
func (f *FaultStore) MaxInFlight() int {
	return int(f.maxInFlight.Load())
}

// Transient returns a transient store error for path.
func Transient(op, path string) error {
	return store.NewError(op, path, store.KindTransient, context.DeadlineExceeded)
}
