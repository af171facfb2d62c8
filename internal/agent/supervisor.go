package agent

import (
	"bytes"
	"context"
	"time"

	"github.com/bft-labs/snapship/internal/ports"
)

// runResult carries the captured output of one supervised process run.
// Stderr is where the replication tool emits progress and completion lines.
type runResult struct {
	Stdout      string
	Stderr      string
	ExitedEarly bool
}

// supervisor owns the lifecycle of external process runs: it spawns through
// the Runner port and guarantees the process is reaped before returning, on
// every path.
type supervisor struct {
	runner ports.Runner
}

// runBounded runs spec for at most timeout. The process is expected to stream
// forever, so the normal path is: block on the first wait until the deadline,
// kill, then block on a second wait to drain buffered output. Skipping the
// drain could lose the very lines that announce a just-completed snapshot.
//
// If the process exits on its own before the deadline the captured output is
// returned immediately with ExitedEarly set; the caller decides what an early
// exit means. Context cancellation kills and drains the same way.
func (s *supervisor) runBounded(ctx context.Context, spec ports.CommandSpec, timeout time.Duration) (runResult, error) {
	var stdout, stderr bytes.Buffer

	p, err := s.runner.Start(ctx, spec, &stdout, &stderr)
	if err != nil {
		return runResult{}, err
	}

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		// Early natural exit. Output is already flushed.
		return runResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitedEarly: true}, nil

	case <-timer.C:
		// The deadline is the expected end of an attempt. Kill, then the
		// second wait drains; it is bounded because a killed process exits
		// promptly.
		_ = p.Kill()
		<-done
		return runResult{Stdout: stdout.String(), Stderr: stderr.String()}, nil

	case <-ctx.Done():
		_ = p.Kill()
		<-done
		return runResult{Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	}
}

// runToCompletion runs spec until it terminates on its own. Used for restore,
// which is defined to terminate. Context cancellation still kills and drains
// so no handle is ever left unjoined.
func (s *supervisor) runToCompletion(ctx context.Context, spec ports.CommandSpec) (runResult, error) {
	var stdout, stderr bytes.Buffer

	p, err := s.runner.Start(ctx, spec, &stdout, &stderr)
	if err != nil {
		return runResult{}, err
	}

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()

	select {
	case <-done:
		return runResult{Stdout: stdout.String(), Stderr: stderr.String()}, nil
	case <-ctx.Done():
		_ = p.Kill()
		<-done
		return runResult{Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	}
}
