package domain

import "errors"

// Handshake errors. Each one is terminal for the session that produced it.
// Adapters wrap them with context; match them with errors.Is.
var (
	// ErrTransport is returned for connection errors, non-2xx status codes
	// and malformed response bodies on outbound calls.
	ErrTransport = errors.New("codeshake: transport failure")

	// ErrMissingField is returned when a remote response lacks an expected field.
	ErrMissingField = errors.New("codeshake: missing field")

	// ErrTimeout is returned when the second fragment was not delivered in time.
	ErrTimeout = errors.New("codeshake: timed out waiting for second fragment")

	// ErrEmptyPayload is returned when the second fragment was delivered blank.
	ErrEmptyPayload = errors.New("codeshake: empty second fragment")

	// ErrInvalidTransition is returned when a session is asked to revisit or
	// skip a phase.
	ErrInvalidTransition = errors.New("codeshake: invalid phase transition")
)

// Lifecycle errors returned by the service.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("codeshake: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("codeshake: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("codeshake: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("codeshake: invalid configuration")
)
