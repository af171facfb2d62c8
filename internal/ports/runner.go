package ports

import (
	"context"
	"io"
)

// CommandSpec describes one external process invocation: the executable, its
// argument vector, and extra environment entries appended to the parent's
// environment (credentials for the replication tool travel this way).
type CommandSpec struct {
	Name string
	Args []string
	Env  []string
}

// Process is the handle to one spawned external process. It is exclusively
// owned by the call that created it and must be reaped (Wait returned) before
// that call returns, on every exit path including timeout and cancellation.
type Process interface {
	// Wait blocks until the process exits and all buffered output has been
	// flushed to the writers given at start. It must be called exactly once.
	Wait() error

	// Kill sends an unconditional termination signal. After Kill, Wait is
	// guaranteed to return promptly; callers use this pair to implement the
	// wait-then-kill-then-drain sequence.
	Kill() error
}

// Runner spawns external processes. Implementations wire the spec's argv and
// environment to a concrete mechanism (os/exec in production, fakes in tests).
type Runner interface {
	// Start launches the process with stdout and stderr attached to the
	// given writers. The writers must not be read until Wait has returned.
	// A launch failure (binary missing, permission denied) is returned
	// without a Process; nothing needs reaping in that case.
	Start(ctx context.Context, spec CommandSpec, stdout, stderr io.Writer) (Process, error)
}
