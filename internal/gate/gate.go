// Package gate provides a single-slot readiness gate that hands one value
// from a producer that fires at an unpredictable time to a consumer that
// blocks until the value exists or a deadline elapses.
//
// A Gate starts Empty. The first Publish makes it Ready and wakes every
// waiter; it never goes back to Empty. Later Publish calls overwrite the
// stored value (last write wins) and every Await after readiness returns
// the value stored at that moment.
//
// A timed-out Await leaves the Gate Empty. A value published afterwards is
// still stored, it simply has no observer.
package gate

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Await when the deadline elapses first.
var ErrTimeout = errors.New("gate: timed out")

// Gate is a single-slot, write-many read-many handoff.
// Use New to create one; the zero value is not usable.
type Gate[T any] struct {
	mu    sync.Mutex
	value T
	set   bool

	ready chan struct{}
	once  sync.Once
}

// New creates an empty Gate.
func New[T any]() *Gate[T] {
	return &Gate[T]{ready: make(chan struct{})}
}

// Publish stores v and wakes any waiter. It never blocks.
// It reports whether a previously published value was overwritten.
func (g *Gate[T]) Publish(v T) bool {
	g.mu.Lock()
	replaced := g.set
	g.value = v
	g.set = true
	g.mu.Unlock()

	g.once.Do(func() { close(g.ready) })
	return replaced
}

// Await blocks the calling goroutine until a value has been published,
// timeout elapses (ErrTimeout) or ctx is done (ctx.Err()).
// A non-positive timeout waits on ctx alone.
func (g *Gate[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	select {
	case <-g.ready:
		return g.load(), nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var zero T
	select {
	case <-g.ready:
		return g.load(), nil
	case <-expired:
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Ready reports whether a value has been published.
func (g *Gate[T]) Ready() bool {
	select {
	case <-g.ready:
		return true
	default:
		return false
	}
}

// Peek returns the stored value without blocking.
func (g *Gate[T]) Peek() (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value, g.set
}

func (g *Gate[T]) load() T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}
