// Package proc implements ports.Runner on top of os/exec.
package proc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/bft-labs/snapship/internal/domain"
	"github.com/bft-labs/snapship/internal/ports"
)

// ExecRunner spawns real OS processes. The zero value is ready to use.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start launches the process described by spec. The child inherits the parent
// environment with spec.Env appended, so credential variables shadow any
// inherited value of the same name.
//
// The context deliberately does not carry the replication deadline: the
// supervisor owns the kill decision so it can drain output after the kill.
// Context cancellation is handled by the supervisor for the same reason.
func (r *ExecRunner) Start(_ context.Context, spec ports.CommandSpec, stdout, stderr io.Writer) (ports.Process, error) {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), spec.Env...)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSpawn, spec.Name, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

// Wait blocks until the child exits. exec.Cmd copies pipe output into the
// configured writers before Wait returns, which is what makes the post-kill
// drain lossless.
func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// Kill sends SIGKILL. The OS guarantees prompt exit afterwards, so a Wait
// following Kill is bounded.
func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}
