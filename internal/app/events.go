package app

import (
	"github.com/bft-labs/codeshake/internal/domain"
	"github.com/bft-labs/codeshake/internal/ports"
)

// EventHandler observes handshake progress.
// Methods are called synchronously from the driver goroutine and must not block.
type EventHandler interface {
	// OnPhaseChange is called after every session phase transition.
	OnPhaseChange(previous, current domain.Phase, reason string)

	// OnComplete is called once when the session reaches a terminal phase.
	OnComplete(result domain.Result)
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// LogEvents is an EventHandler that writes every phase change and the
// session outcome to a logger.
type LogEvents struct {
	logger ports.Logger
}

// NewLogEvents creates a LogEvents writing to logger.
func NewLogEvents(logger ports.Logger) *LogEvents {
	return &LogEvents{logger: logger}
}

// OnPhaseChange logs the transition at debug level.
func (e *LogEvents) OnPhaseChange(previous, current domain.Phase, reason string) {
	e.logger.Debug("phase change",
		ports.String("from", previous.String()),
		ports.String("to", current.String()),
		ports.String("reason", reason),
	)
}

// OnComplete logs the outcome with the session duration.
func (e *LogEvents) OnComplete(result domain.Result) {
	fields := []ports.Field{
		ports.String("session_id", result.SessionID),
		ports.String("phase", result.Phase.String()),
		ports.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	}
	if result.Err != nil {
		e.logger.Warn("session failed", append(fields, ports.Err(result.Err))...)
		return
	}
	e.logger.Info("session completed", append(fields, ports.String("final_message", result.FinalMessage))...)
}
