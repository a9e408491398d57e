package ports

import (
	"context"
	"time"
)

// FragmentSink receives the second fragment from the callback ingress.
type FragmentSink interface {
	// Publish stores the fragment without blocking. It reports whether a
	// previously published value was overwritten.
	Publish(fragment string) (replaced bool)
}

// FragmentSource hands the second fragment to the handshake driver.
type FragmentSource interface {
	// Await blocks until a fragment has been published, the timeout elapses
	// (gate.ErrTimeout) or ctx is done (ctx.Err()).
	Await(ctx context.Context, timeout time.Duration) (string, error)
}
