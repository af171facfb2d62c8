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
//   - [Runner]: Spawns and owns external replication processes
//   - [Process]: Handle to one spawned process (wait, kill)
//   - [StatusRepository]: Persists and loads the last-attempt status
//
// # Usage
//
// The application layer (internal/agent) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (os/exec, file system, zerolog).
//
// This separation enables:
//   - Testing supervision logic with fake processes instead of real binaries
//   - Swapping infrastructure without changing replication logic
//   - Clear boundaries and dependency direction
package ports
