// Package domain contains the core domain entities and value objects for codeshake.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, logging) and contains only
// the handshake rules.
//
// # Entities
//
//   - [Session]: One run of the three-phase handshake, from the initial
//     request to the final result
//   - [Phase]: The monotonic position of a session within the handshake
//   - [Result]: A point-in-time copy of a session, safe to share
//
// # Design Principles
//
// Domain entities are:
//   - Free of infrastructure dependencies
//   - Guarded by their own invariants (fragments are set once, phases never
//     move backwards)
//   - Testable without mocks or external systems
package domain
