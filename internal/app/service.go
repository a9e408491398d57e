package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	httpAdapter "github.com/bft-labs/codeshake/internal/adapters/http"
	logAdapter "github.com/bft-labs/codeshake/internal/adapters/log"
	"github.com/bft-labs/codeshake/internal/domain"
	"github.com/bft-labs/codeshake/internal/gate"
	"github.com/bft-labs/codeshake/internal/ingress"
	"github.com/bft-labs/codeshake/internal/ports"
)

const serverShutdownTimeout = 5 * time.Second

// Config holds the service configuration.
type Config struct {
	RemoteURL    string
	CallbackURL  string
	Greeting     string
	ListenAddr   string
	CallbackPath string

	CallbackTimeout time.Duration
	HTTPTimeout     time.Duration
}

// Validate checks the fields the service cannot run without.
func (c Config) Validate() error {
	if c.CallbackURL == "" {
		return fmt.Errorf("%w: callback url is required", domain.ErrInvalidConfig)
	}
	if c.RemoteURL == "" {
		return fmt.Errorf("%w: remote url is required", domain.ErrInvalidConfig)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address is required", domain.ErrInvalidConfig)
	}
	return nil
}

// Option configures optional behavior of the Service.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	remote       ports.Remote
	eventHandler EventHandler
	emitter      EventEmitter
	listener     net.Listener
}

// WithHTTPClient sets the client used for outbound calls.
// If not provided, a client with the configured timeout is used.
func WithHTTPClient(client ports.HTTPClient) Option {
	return func(o *options) { o.httpClient = client }
}

// WithLogger sets a custom logger. If not provided, nothing is logged.
func WithLogger(logger ports.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRemote replaces the HTTP remote client.
func WithRemote(remote ports.Remote) Option {
	return func(o *options) { o.remote = remote }
}

// WithEventHandler sets a handler for handshake events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) { o.eventHandler = handler }
}

// WithStateEmitter sets a handler for lifecycle state changes.
func WithStateEmitter(emitter EventEmitter) Option {
	return func(o *options) { o.emitter = emitter }
}

// WithListener serves the callback on an existing listener instead of
// listening on Config.ListenAddr.
func WithListener(l net.Listener) Option {
	return func(o *options) { o.listener = l }
}

// Service owns the readiness gate, the handshake driver and the callback
// server for the lifetime of the process. The driver is launched exactly
// once by Start.
type Service struct {
	cfg       Config
	lifecycle *Lifecycle
	gate      *gate.Gate[string]
	driver    *Driver
	server    *http.Server
	listener  net.Listener
	logger    ports.Logger

	mu       sync.Mutex
	launched bool
	done     chan struct{}
}

// New creates a Service in StateStopped.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = ingress.DefaultCallbackPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logAdapter.NewNoopLogger()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if o.remote == nil {
		o.remote = httpAdapter.NewRemoteClient(o.httpClient, cfg.RemoteURL, o.logger)
	}

	g := gate.New[string]()
	driver := NewDriver(DriverConfig{
		Greeting:        cfg.Greeting,
		CallbackURL:     cfg.CallbackURL,
		CallbackTimeout: cfg.CallbackTimeout,
	}, o.remote, g, o.logger, o.eventHandler)

	router := ingress.NewRouter(cfg.CallbackPath, ingress.NewHandler(g, o.logger))

	return &Service{
		cfg:       cfg,
		lifecycle: NewLifecycle(o.logger, o.emitter),
		gate:      g,
		driver:    driver,
		server:    &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		listener:  o.listener,
		logger:    o.logger,
		done:      make(chan struct{}),
	}, nil
}

// Start begins serving the callback and launches the handshake driver in the
// background. It returns once both are running. A Service can be started once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.launched || !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	if s.listener == nil {
		ln, err := net.Listen("tcp", s.cfg.ListenAddr)
		if err != nil {
			_ = s.lifecycle.TransitionTo(StateCrashed, "listen failed")
			return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
		}
		s.listener = ln
	}
	s.launched = true

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	// Enter Running before the workers start; a server that fails at once
	// then moves Running -> Crashed.
	if err := s.lifecycle.TransitionTo(StateRunning, "launching workers"); err != nil {
		cancel()
		return err
	}

	s.lifecycle.Go(func() {
		s.logger.Info("callback server listening",
			ports.String("addr", s.listener.Addr().String()),
			ports.String("path", s.cfg.CallbackPath),
		)
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server error", ports.Err(err))
			_ = s.lifecycle.TransitionTo(StateCrashed, err.Error())
			cancel()
		}
	})

	s.lifecycle.Go(func() {
		defer close(s.done)
		// Failures are terminal for the session only; the server keeps running.
		_, _ = s.driver.Run(runCtx)
	})

	return nil
}

// Stop cancels the driver, shuts the callback server down and waits for both
// workers. Returns domain.ErrShutdownTimeout if they do not finish in time.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("callback server shutdown", ports.Err(err))
	}
	s.logGateStatus()

	err := s.lifecycle.WaitWithTimeout(ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(StateStopped, "graceful shutdown")
	}
	return err
}

// logGateStatus reports whether a callback was ever delivered. A value that
// arrived after the driver gave up shows up here and nowhere else.
func (s *Service) logGateStatus() {
	part2, delivered := s.gate.Peek()
	s.logger.Info("callback gate status",
		ports.Bool("ready", s.gate.Ready()),
		ports.Bool("delivered", delivered),
		ports.Int("part2_len", len(part2)),
		ports.String("session_phase", s.driver.Session().Phase().String()),
	)
}

// Done is closed when the handshake session reaches a terminal phase.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Result returns the current session state.
func (s *Service) Result() domain.Result {
	return s.driver.Session().Result()
}

// Status returns the current lifecycle state.
func (s *Service) Status() State {
	return s.lifecycle.State()
}

// Addr returns the callback listener address, or nil before Start.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
