package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bft-labs/codeshake/internal/app"
	"github.com/bft-labs/codeshake/internal/domain"
)

var errServiceCrashed = errors.New("callback server crashed")

// runningService is the part of app.Service the shutdown loop needs.
type runningService interface {
	Done() <-chan struct{}
	Result() domain.Result
	Stop() error
}

// crashNotifier is an app.EventEmitter that closes Crashed() the first time
// the service enters StateCrashed.
type crashNotifier struct {
	once    sync.Once
	crashed chan struct{}
}

func newCrashNotifier() *crashNotifier {
	return &crashNotifier{crashed: make(chan struct{})}
}

func (c *crashNotifier) OnStateChange(_, current app.State, _ string) {
	if current == app.StateCrashed {
		c.once.Do(func() { close(c.crashed) })
	}
}

func (c *crashNotifier) Crashed() <-chan struct{} {
	return c.crashed
}

// awaitShutdown blocks until a signal arrives, the service crashes or, when
// once is set, the handshake reaches a terminal phase. It then stops svc.
// Without once the callback is served until a signal arrives, whatever the
// outcome of the handshake.
func awaitShutdown(log zerolog.Logger, svc runningService, sigCh <-chan os.Signal, crashed <-chan struct{}, once bool) error {
	var done <-chan struct{}
	if once {
		done = svc.Done()
	}

	var cause error
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
	case <-crashed:
		log.Error().Msg("service crashed, stopping...")
		cause = errServiceCrashed
	case <-done:
		result := svc.Result()
		log.Info().
			Str("session_id", result.SessionID).
			Str("phase", result.Phase.String()).
			Msg("handshake finished, stopping")
	}

	if err := svc.Stop(); err != nil {
		return errors.Join(cause, fmt.Errorf("stop service: %w", err))
	}
	return cause
}
