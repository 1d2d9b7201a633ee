package common

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/additive-lens/pkg/errors"
)

// State is the load state of a shared read-only asset such as the catalog.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// LoadFunc produces the asset. It is called at most once per Lifecycle.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Lifecycle runs a one-time load and lets any number of callers wait for,
// and then share, its outcome. A failed load stays failed; build a new
// Lifecycle to retry.
type Lifecycle[T any] struct {
	once sync.Once
	done chan struct{}

	mu       sync.RWMutex
	state    State
	value    T
	err      error
	loadedAt time.Time
	took     time.Duration
}

// NewLifecycle returns a Lifecycle in StateUninitialized.
func NewLifecycle[T any]() *Lifecycle[T] {
	return &Lifecycle[T]{
		done:  make(chan struct{}),
		state: StateUninitialized,
	}
}

// Load runs fn if no load has started yet and returns the shared outcome.
// Callers arriving while the load is in progress block until it finishes. A
// panic in fn fails the load.
func (l *Lifecycle[T]) Load(ctx context.Context, fn LoadFunc[T]) (T, error) {
	l.once.Do(func() {
		defer close(l.done)
		l.setState(StateLoading)
		start := time.Now()
		v, err := runLoad(ctx, fn)

		l.mu.Lock()
		l.took = time.Since(start)
		if err != nil {
			l.state = StateFailed
			l.err = err
		} else {
			l.state = StateReady
			l.value = v
			l.loadedAt = time.Now()
		}
		l.mu.Unlock()
	})
	return l.Result()
}

// runLoad calls fn and turns a panic into a load error.
func runLoad[T any](ctx context.Context, fn LoadFunc[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, errors.Newf(errors.CodeInternal, "load panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Start runs Load in the background.
func (l *Lifecycle[T]) Start(ctx context.Context, fn LoadFunc[T]) {
	go func() { _, _ = l.Load(ctx, fn) }()
}

// Wait blocks until the load has finished or ctx is done.
func (l *Lifecycle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-l.done:
		return l.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the load has finished, successfully or not.
func (l *Lifecycle[T]) Done() <-chan struct{} { return l.done }

// Result returns the loaded value and error as they are right now. Before the
// load finishes both are zero.
func (l *Lifecycle[T]) Result() (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.err
}

// State returns the current state.
func (l *Lifecycle[T]) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Ready reports whether the load succeeded.
func (l *Lifecycle[T]) Ready() bool { return l.State() == StateReady }

// LoadedAt returns when the load succeeded and how long it took.
func (l *Lifecycle[T]) LoadedAt() (time.Time, time.Duration) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt, l.took
}

func (l *Lifecycle[T]) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
