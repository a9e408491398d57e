// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Remote]: Performs the outbound phase-1 and phase-3 exchanges
//   - [FragmentSink]: Accepts the second fragment from the callback ingress
//   - [FragmentSource]: Blocks until the second fragment is available
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (HTTP, zerolog, etc.). The readiness gate
// (internal/gate) satisfies both fragment ports.
package ports
