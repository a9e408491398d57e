package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/bft-labs/codeshake/internal/adapters/log"
	"github.com/bft-labs/codeshake/internal/domain"
	"github.com/bft-labs/codeshake/internal/gate"
	"github.com/bft-labs/codeshake/internal/ports"
)

// fakeRemote implements ports.Remote with canned responses.
type fakeRemote struct {
	greet    ports.GreetResponse
	greetErr error
	final    ports.RedeemResponse
	finalErr error

	greetCalls  atomic.Int32
	redeemCalls atomic.Int32

	mu       sync.Mutex
	greeting ports.GreetRequest
	code     string
}

func (f *fakeRemote) Greet(_ context.Context, req ports.GreetRequest) (ports.GreetResponse, error) {
	f.greetCalls.Add(1)
	f.mu.Lock()
	f.greeting = req
	f.mu.Unlock()
	return f.greet, f.greetErr
}

func (f *fakeRemote) Redeem(_ context.Context, code string) (ports.RedeemResponse, error) {
	f.redeemCalls.Add(1)
	f.mu.Lock()
	f.code = code
	f.mu.Unlock()
	return f.final, f.finalErr
}

// countingSource wraps a gate and counts Await calls.
type countingSource struct {
	*gate.Gate[string]
	awaits atomic.Int32
}

func (c *countingSource) Await(ctx context.Context, timeout time.Duration) (string, error) {
	c.awaits.Add(1)
	return c.Gate.Await(ctx, timeout)
}

// recordingEvents implements EventHandler.
type recordingEvents struct {
	mu        sync.Mutex
	phases    []domain.Phase
	completed []domain.Result
}

func (r *recordingEvents) OnPhaseChange(_, current domain.Phase, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, current)
}

func (r *recordingEvents) OnComplete(result domain.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, result)
}

func newTestDriver(remote ports.Remote, source ports.FragmentSource, events EventHandler, timeout time.Duration) *Driver {
	return NewDriver(DriverConfig{
		Greeting:        "Hello iCorp!",
		CallbackURL:     "https://hooks.example.com/webhook",
		CallbackTimeout: timeout,
	}, remote, source, logAdapter.NewNoopLogger(), events)
}

func TestDriverCompletesHandshake(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet: ports.GreetResponse{Part1: "ABC"},
		final: ports.RedeemResponse{Msg: "done"},
	}
	source := &countingSource{Gate: gate.New[string]()}
	events := &recordingEvents{}
	d := newTestDriver(remote, source, events, time.Second)

	go func() {
		time.Sleep(10 * time.Millisecond)
		source.Publish("123")
	}()

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseCompleted, result.Phase)
	assert.Equal(t, "ABC123", result.CombinedCode)
	assert.Equal(t, "done", result.FinalMessage)
	assert.Equal(t, "ABC123", remote.code)
	assert.Equal(t, "Hello iCorp!", remote.greeting.Msg)
	assert.Equal(t, "https://hooks.example.com/webhook", remote.greeting.URL)

	assert.Equal(t, []domain.Phase{
		domain.PhaseAwaitingSecondFragment,
		domain.PhaseCombining,
		domain.PhaseAwaitingFinalResult,
		domain.PhaseCompleted,
	}, events.phases)
	require.Len(t, events.completed, 1)
	assert.Equal(t, result.SessionID, events.completed[0].SessionID)
}

func TestDriverCombinesInOrder(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{{"ABC", "123"}, {"123", "ABC"}, {"x", "yz"}, {"long-first-", "s"}}
	for _, p := range pairs {
		remote := &fakeRemote{
			greet: ports.GreetResponse{Part1: p[0]},
			final: ports.RedeemResponse{Msg: "ok"},
		}
		g := gate.New[string]()
		g.Publish(p[1])

		result, err := newTestDriver(remote, g, nil, time.Second).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, p[0]+p[1], result.CombinedCode)
		assert.Equal(t, p[0]+p[1], remote.code)
	}
}

func TestDriverUsesCallbackDeliveredBeforeWait(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet: ports.GreetResponse{Part1: "ABC"},
		final: ports.RedeemResponse{Msg: "done"},
	}
	g := gate.New[string]()
	g.Publish("early")

	result, err := newTestDriver(remote, g, nil, time.Second).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCearly", result.CombinedCode)
}

func TestDriverUsesLatestDelivery(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet: ports.GreetResponse{Part1: "ABC"},
		final: ports.RedeemResponse{Msg: "done"},
	}
	g := gate.New[string]()
	g.Publish("111")
	g.Publish("222")

	result, err := newTestDriver(remote, g, nil, time.Second).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABC222", result.CombinedCode)
}

func TestDriverTimeoutSkipsPhase3(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet: ports.GreetResponse{Part1: "ABC"},
		final: ports.RedeemResponse{Msg: "done"},
	}
	source := &countingSource{Gate: gate.New[string]()}
	events := &recordingEvents{}

	result, err := newTestDriver(remote, source, events, 20*time.Millisecond).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.NotErrorIs(t, err, domain.ErrEmptyPayload)
	assert.Contains(t, err.Error(), "after 20ms")

	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.ErrorIs(t, result.Err, domain.ErrTimeout)
	assert.Equal(t, int32(1), source.awaits.Load())
	assert.Equal(t, int32(0), remote.redeemCalls.Load())
	require.Len(t, events.completed, 1)
	assert.Equal(t, domain.PhaseFailed, events.completed[0].Phase)
}

func TestDriverEmptyPayloadIsDistinctFromTimeout(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"", "  "} {
		remote := &fakeRemote{
			greet: ports.GreetResponse{Part1: "ABC"},
			final: ports.RedeemResponse{Msg: "done"},
		}
		g := gate.New[string]()
		g.Publish(v)

		result, err := newTestDriver(remote, g, nil, time.Second).Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyPayload)
		assert.NotErrorIs(t, err, domain.ErrTimeout)
		assert.Equal(t, domain.PhaseFailed, result.Phase)
		assert.Empty(t, result.CombinedCode)
		assert.Equal(t, int32(0), remote.redeemCalls.Load())
	}
}

func TestDriverPhase1TransportFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greetErr: fmt.Errorf("%w: server returned 500", domain.ErrTransport),
	}
	source := &countingSource{Gate: gate.New[string]()}

	result, err := newTestDriver(remote, source, nil, time.Second).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, int32(0), source.awaits.Load())
	assert.Equal(t, int32(0), remote.redeemCalls.Load())
}

func TestDriverMissingFirstFragment(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{greet: ports.GreetResponse{}}
	source := &countingSource{Gate: gate.New[string]()}

	start := time.Now()
	result, err := newTestDriver(remote, source, nil, time.Minute).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, int32(0), source.awaits.Load())
	assert.Equal(t, int32(0), remote.redeemCalls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestDriverPhase3TransportFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet:    ports.GreetResponse{Part1: "ABC"},
		finalErr: fmt.Errorf("%w: send request: connection refused", domain.ErrTransport),
	}
	g := gate.New[string]()
	g.Publish("123")

	result, err := newTestDriver(remote, g, nil, time.Second).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, "ABC123", result.CombinedCode)
}

func TestDriverMissingFinalMessage(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet: ports.GreetResponse{Part1: "ABC"},
		final: ports.RedeemResponse{},
	}
	g := gate.New[string]()
	g.Publish("123")

	result, err := newTestDriver(remote, g, nil, time.Second).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.NotErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Empty(t, result.FinalMessage)
}

func TestDriverCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{greet: ports.GreetResponse{Part1: "ABC"}}
	g := gate.New[string]()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := newTestDriver(remote, g, nil, time.Minute).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, int32(0), remote.redeemCalls.Load())
}

func TestDriverRunsOnce(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		greet: ports.GreetResponse{Part1: "ABC"},
		final: ports.RedeemResponse{Msg: "done"},
	}
	g := gate.New[string]()
	g.Publish("123")
	d := newTestDriver(remote, g, nil, time.Second)

	_, err := d.Run(context.Background())
	require.NoError(t, err)

	result, err := d.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrAlreadyRunning)
	assert.Equal(t, domain.PhaseCompleted, result.Phase)
	assert.Equal(t, int32(1), remote.greetCalls.Load())
}

func TestNewDriverDefaultsTimeout(t *testing.T) {
	t.Parallel()

	d := NewDriver(DriverConfig{}, &fakeRemote{}, gate.New[string](), logAdapter.NewNoopLogger(), nil)
	assert.Equal(t, DefaultCallbackTimeout, d.cfg.CallbackTimeout)
}
