// Package domain contains the core domain entities and value objects for sbsship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, networking, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Message]: A single parsed SBS-1 surveillance event
//   - [Batch]: An ordered aggregate of messages ready to be sent together
//   - [Status]: Run status counters persisted between restarts
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
