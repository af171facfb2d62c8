// Package snapship supervises timeout-bounded replication of a local SQLite
// database to a remote object store, and the one-shot restore path back.
//
// The actual byte shipping is done by an external replication binary
// (litestream); snapship owns its lifecycle: spawn, bounded wait, kill,
// drain, and completion detection from the captured output.
//
// Example usage:
//
//	cfg := snapship.DefaultConfig()
//	cfg.AccessKey = "..."
//	cfg.SecretKey = "..."
//	cfg.ReplicaURL = "s3://bucket/db"
//
//	a, err := snapship.New(cfg, snapship.WithLogger(log.NewConsoleLogger()))
//	if err != nil {
//	    return err
//	}
//	if err := a.Start(context.Background()); err != nil {
//	    return err
//	}
//	defer a.Stop()
package snapship

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/snapship/internal/adapters/fs"
	"github.com/bft-labs/snapship/internal/adapters/proc"
	"github.com/bft-labs/snapship/internal/agent"
	"github.com/bft-labs/snapship/internal/domain"
	"github.com/bft-labs/snapship/internal/ports"
	"github.com/bft-labs/snapship/pkg/lifecycle"
)

// Config holds the configuration for the replication agent.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = agent.Config

// State represents the lifecycle state of an Agent.
type State = lifecycle.State

// Lifecycle states re-exported for callers.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateCrashed  = lifecycle.StateCrashed
)

// Errors callers can check with errors.Is.
var (
	ErrInvalidConfig       = domain.ErrInvalidConfig
	ErrSpawn               = domain.ErrSpawn
	ErrRestoreFailed       = domain.ErrRestoreFailed
	ErrLocalDatabaseExists = domain.ErrLocalDatabaseExists
	ErrAlreadyRunning      = domain.ErrAlreadyRunning
	ErrNotRunning          = domain.ErrNotRunning
)

// DefaultConfig returns a Config with sensible default values.
// At minimum, set AccessKey, SecretKey and ReplicaURL before calling New;
// agent.ApplyEnvConfig-style environment loading is done by the CLI.
func DefaultConfig() Config {
	return agent.DefaultConfig()
}

// Agent is an embeddable replication agent. Use New() to create an instance,
// then Start() to begin attempting snapshots in the background.
type Agent struct {
	config    Config
	opts      options
	lifecycle *lifecycle.Manager
	rep       *agent.Replicator

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Agent with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error wrapping ErrInvalidConfig if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var runner ports.Runner = proc.NewExecRunner()
	if o.runner != nil {
		runner = o.runner
	}

	rep := agent.NewReplicator(cfg, runner, fs.NewStatusFileRepository(cfg.StateDir))
	if o.eventHandler != nil {
		h := o.eventHandler
		rep.SetAttemptObserver(func(a domain.Attempt) {
			h.OnAttempt(AttemptEvent{
				Outcome:     a.Outcome.String(),
				Confirmed:   a.Outcome.Confirmed(),
				ExitedEarly: a.ExitedEarly,
				StartedAt:   a.StartedAt,
				FinishedAt:  a.FinishedAt,
			})
		})
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	return &Agent{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle.NewManager(o.logger, emitter),
		rep:       rep,
	}, nil
}

// Start begins replication attempts in the background.
// Returns immediately after starting the agent goroutine.
// Returns ErrAlreadyRunning if the agent is not stopped.
// The provided context bounds the lifetime of the whole replication loop.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := a.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.ctx = runCtx
	a.cancel = cancel
	a.lifecycle.SetCancel(cancel)

	if a.opts.watchConfigPath != "" {
		watcher := agent.NewConfigWatcher(a.opts.watchConfigPath, a.rep)
		go watcher.Run(runCtx)
	}

	a.lifecycle.AddWorker()
	go func() {
		defer a.lifecycle.WorkerDone()

		if err := a.lifecycle.TransitionTo(lifecycle.StateRunning, "agent starting"); err != nil {
			a.opts.logger.Error("failed to transition to running", logErr(err))
			return
		}

		err := a.rep.Run(runCtx)
		switch {
		case err == nil:
			// Natural completion: snapshot confirmed or once mode finished.
			if a.lifecycle.State() == lifecycle.StateRunning {
				_ = a.lifecycle.TransitionTo(lifecycle.StateStopping, "run completed")
				_ = a.lifecycle.TransitionTo(lifecycle.StateStopped, "run completed")
			}
		case errors.Is(err, context.Canceled):
			// Stop() drives the shutdown transitions.
		default:
			a.opts.logger.Error("agent error", logErr(err))
			_ = a.lifecycle.TransitionTo(lifecycle.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the agent. A replication attempt in flight has
// its process killed and drained before Stop returns. Waits up to 30 seconds
// before forcing shutdown; returns lifecycle.ErrShutdownTimeout if forced.
func (a *Agent) Stop() error {
	a.mu.Lock()

	if !a.lifecycle.CanStop() {
		a.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := a.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		a.mu.Unlock()
		return err
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	err := a.lifecycle.WaitWithTimeout(lifecycle.ShutdownTimeout)
	if err != nil {
		_ = a.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
	} else {
		_ = a.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (a *Agent) Status() State {
	return a.lifecycle.State()
}

// ReplicateOnce performs a single bounded replication attempt synchronously
// and reports whether a snapshot was confirmed. Do not mix with Start().
func (a *Agent) ReplicateOnce(ctx context.Context) (bool, error) {
	return a.rep.ReplicateOnce(ctx)
}

// Restore reconstructs the local database from the remote store and returns
// its path. Call DeleteLocal first; restore refuses to overwrite an existing
// local database.
func (a *Agent) Restore(ctx context.Context) (string, error) {
	return a.rep.Restore(ctx)
}

// DeleteLocal removes the local database file and its sidecars. Idempotent.
func (a *Agent) DeleteLocal() error {
	return a.rep.DeleteLocal()
}
