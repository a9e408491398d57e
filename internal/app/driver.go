package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bft-labs/codeshake/internal/domain"
	"github.com/bft-labs/codeshake/internal/gate"
	"github.com/bft-labs/codeshake/internal/ports"
)

// DefaultCallbackTimeout bounds the wait for the second fragment.
const DefaultCallbackTimeout = 60 * time.Second

// DriverConfig holds the parameters of one handshake.
type DriverConfig struct {
	// Greeting is the fixed message sent in phase 1.
	Greeting string

	// CallbackURL is advertised in phase 1 so the remote party knows where
	// to deliver the second fragment.
	CallbackURL string

	// CallbackTimeout bounds the wait for the second fragment.
	CallbackTimeout time.Duration
}

// Driver runs the three handshake phases in order for a single session.
type Driver struct {
	cfg     DriverConfig
	remote  ports.Remote
	source  ports.FragmentSource
	session *domain.Session
	logger  ports.Logger
	events  EventHandler

	started atomic.Bool
}

// NewDriver creates a driver with a fresh session. events may be nil.
func NewDriver(cfg DriverConfig, remote ports.Remote, source ports.FragmentSource, logger ports.Logger, events EventHandler) *Driver {
	if cfg.CallbackTimeout <= 0 {
		cfg.CallbackTimeout = DefaultCallbackTimeout
	}
	return &Driver{
		cfg:     cfg,
		remote:  remote,
		source:  source,
		session: domain.NewSession(),
		logger:  logger,
		events:  events,
	}
}

// Session returns the session driven by d.
func (d *Driver) Session() *domain.Session {
	return d.session
}

// Run performs the handshake. It returns the terminal session result and,
// when the session failed, the cause. No step is retried. Run may be called
// once; later calls return domain.ErrAlreadyRunning.
func (d *Driver) Run(ctx context.Context) (domain.Result, error) {
	if !d.started.CompareAndSwap(false, true) {
		return d.session.Result(), domain.ErrAlreadyRunning
	}

	d.logger.Info("handshake started",
		ports.String("session_id", d.session.ID()),
		ports.String("callback_url", d.cfg.CallbackURL),
	)

	// Phase 1: greeting, first fragment in the response.
	greet, err := d.remote.Greet(ctx, ports.GreetRequest{Msg: d.cfg.Greeting, URL: d.cfg.CallbackURL})
	if err != nil {
		return d.fail("phase-1 request failed", err)
	}
	if err := d.advance("first fragment received", func() error {
		return d.session.SetFirstFragment(greet.Part1)
	}); err != nil {
		return d.fail("first fragment not received", err)
	}
	d.logger.Info("first fragment received",
		ports.String("session_id", d.session.ID()),
		ports.String("part1", greet.Part1),
	)

	// Phase 2: second fragment through the callback.
	part2, err := d.source.Await(ctx, d.cfg.CallbackTimeout)
	if err != nil {
		if errors.Is(err, gate.ErrTimeout) {
			return d.fail("second fragment did not arrive on time",
				fmt.Errorf("%w after %s", domain.ErrTimeout, d.cfg.CallbackTimeout))
		}
		return d.fail("wait for second fragment interrupted", err)
	}
	if err := d.advance("second fragment received", func() error {
		return d.session.SetSecondFragment(part2)
	}); err != nil {
		return d.fail("second fragment is empty", err)
	}
	d.logger.Info("second fragment received",
		ports.String("session_id", d.session.ID()),
		ports.String("part2", part2),
	)

	var code string
	if err := d.advance("fragments combined", func() error {
		var err error
		code, err = d.session.CombineFragments()
		return err
	}); err != nil {
		return d.fail("combine fragments", err)
	}
	d.logger.Info("combined code",
		ports.String("session_id", d.session.ID()),
		ports.String("code", code),
	)

	// Phase 3: redeem the combined code.
	final, err := d.remote.Redeem(ctx, code)
	if err != nil {
		return d.fail("final request failed", err)
	}
	if err := d.advance("final message received", func() error {
		return d.session.Complete(final.Msg)
	}); err != nil {
		return d.fail("final message not found", err)
	}

	result := d.session.Result()
	d.logger.Info("handshake completed",
		ports.String("session_id", result.SessionID),
		ports.String("final_message", result.FinalMessage),
	)
	if d.events != nil {
		d.events.OnComplete(result)
	}
	return result, nil
}

// advance applies step and reports the resulting phase change.
func (d *Driver) advance(reason string, step func() error) error {
	previous := d.session.Phase()
	if err := step(); err != nil {
		return err
	}
	if d.events != nil {
		d.events.OnPhaseChange(previous, d.session.Phase(), reason)
	}
	return nil
}

// fail ends the session in PhaseFailed and logs the cause.
func (d *Driver) fail(reason string, cause error) (domain.Result, error) {
	previous := d.session.Phase()
	if err := d.session.Fail(cause); err != nil {
		d.logger.Error("fail session", ports.String("session_id", d.session.ID()), ports.Err(err))
	}

	d.logger.Error(reason,
		ports.String("session_id", d.session.ID()),
		ports.String("phase", previous.String()),
		ports.Err(cause),
	)

	result := d.session.Result()
	if d.events != nil {
		d.events.OnPhaseChange(previous, domain.PhaseFailed, reason)
		d.events.OnComplete(result)
	}
	return result, cause
}
