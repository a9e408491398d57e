package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAwaitReturnsValuePublishedBeforeWait(t *testing.T) {
	t.Parallel()

	g := New[string]()
	assert.False(t, g.Publish("123"))

	v, err := g.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "123", v)
}

func TestGateAwaitWakesOnLatePublish(t *testing.T) {
	t.Parallel()

	g := New[string]()
	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Publish("late")
	}()

	v, err := g.Await(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestGateAwaitTimesOutWithoutPublish(t *testing.T) {
	t.Parallel()

	g := New[string]()
	start := time.Now()

	v, err := g.Await(context.Background(), 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Empty(t, v)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.False(t, g.Ready())
}

func TestGatePublishAfterTimeoutIsStored(t *testing.T) {
	t.Parallel()

	g := New[string]()
	_, err := g.Await(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	assert.False(t, g.Publish("too-late"))
	assert.True(t, g.Ready())

	v, ok := g.Peek()
	assert.True(t, ok)
	assert.Equal(t, "too-late", v)
}

func TestGateLastWriteWins(t *testing.T) {
	t.Parallel()

	g := New[string]()
	assert.False(t, g.Publish("first"))
	assert.True(t, g.Publish("second"))
	assert.True(t, g.Publish("third"))

	v, err := g.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "third", v)
}

func TestGateAwaitIsIdempotentAfterReady(t *testing.T) {
	t.Parallel()

	g := New[string]()
	g.Publish("ABC")

	first, err := g.Await(context.Background(), time.Second)
	require.NoError(t, err)

	// Readiness is never cleared, so even a zero timeout returns at once.
	second, err := g.Await(context.Background(), time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGatePublishEmptyValueIsDelivered(t *testing.T) {
	t.Parallel()

	g := New[string]()
	g.Publish("")

	v, err := g.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestGateAwaitHonoursContext(t *testing.T) {
	t.Parallel()

	g := New[string]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Await(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGateAwaitWithoutTimeoutWaitsOnContext(t *testing.T) {
	t.Parallel()

	g := New[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Await(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGatePublishNeverBlocks(t *testing.T) {
	t.Parallel()

	g := New[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			g.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a reader")
	}
	v, ok := g.Peek()
	assert.True(t, ok)
	assert.Equal(t, 999, v)
}

func TestGateConcurrentWaitersObserveSameValue(t *testing.T) {
	t.Parallel()

	g := New[string]()
	const waiters = 8

	var wg sync.WaitGroup
	results := make([]string, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := g.Await(context.Background(), 2*time.Second)
			if err == nil {
				results[i] = v
			}
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	g.Publish("shared")
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, "shared", v, "waiter %d", i)
	}
}
