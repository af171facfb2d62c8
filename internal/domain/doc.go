// Package domain contains the core domain entities and value objects for snapship.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (process spawning, file system,
// logging) and contains only the vocabulary of the replication domain.
//
// # Entities
//
//   - [Attempt]: One bounded replication attempt and its terminal outcome
//   - [Outcome]: The result classification of a finished attempt
//   - [Status]: Persistent record of the most recent attempt
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after their single outcome transition
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
