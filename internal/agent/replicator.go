package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bft-labs/snapship/internal/domain"
	"github.com/bft-labs/snapship/internal/ports"
)

// Replicator drives bounded replication attempts and the restore path against
// one validated Config. A Replicator is safe to reconfigure from the config
// watcher, but concurrent replicate/restore calls against the same local path
// are not serialized here; callers own that.
type Replicator struct {
	mu  sync.Mutex
	cfg Config

	sup    supervisor
	status ports.StatusRepository

	// onAttempt, when set, observes every finished attempt.
	onAttempt func(domain.Attempt)

	attempts uint64
}

// NewReplicator creates a Replicator from a validated config.
// status may be nil to disable attempt persistence.
func NewReplicator(cfg Config, runner ports.Runner, status ports.StatusRepository) *Replicator {
	return &Replicator{cfg: cfg, sup: supervisor{runner: runner}, status: status}
}

// SetAttemptObserver registers a callback invoked after every finished
// attempt. Must be called before Run.
func (r *Replicator) SetAttemptObserver(fn func(domain.Attempt)) {
	r.onAttempt = fn
}

// ReplicateOnce performs one bounded replication attempt: spawn the external
// replicate process, block until the deadline, kill, drain, then scan the
// captured stderr for the completion marker.
//
// On a confirmed snapshot the local database file is deleted (the remote copy
// is now authoritative) and true is returned. A window that closes without a
// snapshot returns false with a nil error; that is a normal outcome, not a
// failure. Spawn errors and context cancellation propagate.
func (r *Replicator) ReplicateOnce(ctx context.Context) (bool, error) {
	cfg := r.config()

	spec, err := cfg.ReplicateSpec()
	if err != nil {
		return false, err
	}

	attempt := domain.NewAttempt(cfg.ReplicateTimeout)
	logger.Info().
		Str("replica_url", cfg.ReplicaURL).
		Dur("timeout", cfg.ReplicateTimeout).
		Msg("replication attempt started")

	res, err := r.sup.runBounded(ctx, spec, cfg.ReplicateTimeout)
	if err != nil {
		return false, err
	}

	attempt.ExitedEarly = res.ExitedEarly
	attempt.OutputBytes = len(res.Stderr)
	if res.ExitedEarly {
		// The replicate process streams until killed; an early exit is an
		// anomaly. The output is still scanned: the marker may have been
		// printed just before the exit.
		logger.Warn().Msg("replication process exited before the deadline")
	}

	confirmed := snapshotWritten(res.Stderr)
	switch {
	case confirmed:
		attempt.Finish(domain.OutcomeSnapshotConfirmed)
	case res.ExitedEarly:
		attempt.Finish(domain.OutcomeExitedNoSnapshot)
	default:
		attempt.Finish(domain.OutcomeTimedOutNoSnapshot)
	}

	if confirmed {
		logger.Info().Str("replica_url", cfg.ReplicaURL).Msg("snapshot written to replica")
		if err := r.removeLocalDB(cfg); err != nil {
			logger.Error().Err(err).Msg("failed to remove local database after snapshot")
		}
	}

	r.recordAttempt(ctx, attempt)
	return confirmed, nil
}

// Run performs replication attempts until a snapshot is confirmed or the
// context is cancelled. In Once mode a single attempt is made. Consecutive
// failed spawns back off exponentially; each attempt is otherwise
// independent, separated by the configured interval.
func (r *Replicator) Run(ctx context.Context) error {
	back := newBackoff(500*time.Millisecond, 10*time.Second)

	for {
		confirmed, err := r.ReplicateOnce(ctx)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			logger.Error().Err(err).Msg("replication attempt failed")
			if r.config().Once {
				return err
			}
			if werr := back.Wait(ctx); werr != nil {
				return werr
			}
			continue
		}
		back.Reset()

		if confirmed {
			// The local file is gone and the remote copy is authoritative;
			// there is nothing left to replicate.
			return nil
		}
		if r.config().Once {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config().Interval):
		}
	}
}

// UpdateTimings applies new attempt timings from the config watcher. Only the
// timing fields are safe to change mid-run; credentials and paths require a
// restart.
func (r *Replicator) UpdateTimings(timeout, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if timeout > 0 && timeout != r.cfg.ReplicateTimeout {
		logger.Info().Dur("timeout", timeout).Msg("replicate timeout updated")
		r.cfg.ReplicateTimeout = timeout
	}
	if interval > 0 && interval != r.cfg.Interval {
		logger.Info().Dur("interval", interval).Msg("attempt interval updated")
		r.cfg.Interval = interval
	}
}

// config returns a copy of the current configuration.
func (r *Replicator) config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// removeLocalDB unlinks the main database file after a confirmed snapshot.
// The -wal/-shm sidecars are left for DeleteLocal, which the restore path
// uses; the replication tool keeps shipping from them until it is killed.
func (r *Replicator) removeLocalDB(cfg Config) error {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("remove %s: %w", dbPath, err)
	}
	logger.Warn().Str("path", dbPath).Msg("local database removed, replica is authoritative")
	return nil
}

func (r *Replicator) recordAttempt(ctx context.Context, attempt domain.Attempt) {
	r.attempts++
	if r.onAttempt != nil {
		r.onAttempt(attempt)
	}
	if r.status == nil {
		return
	}
	if err := r.status.Save(ctx, domain.StatusOf(attempt, r.attempts)); err != nil {
		logger.Error().Err(err).Msg("failed to persist attempt status")
	}
}
