package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bft-labs/snapship/internal/domain"
)

// Restore reconstructs the local database file from the remote store. The
// restore process terminates on its own, so no timeout applies. The local
// path must not exist beforehand; run DeleteLocal first so a stale local copy
// cannot merge with the restored one.
//
// The returned path is always the derived database path. When VerifyRestore
// is enabled the restored file must exist, be non-empty, and pass a SQLite
// integrity check before Restore reports success.
func (r *Replicator) Restore(ctx context.Context) (string, error) {
	cfg := r.config()

	dbPath, err := cfg.DBPath()
	if err != nil {
		return "", err
	}
	if fileExists(dbPath) {
		return "", fmt.Errorf("%w: remove %s before restore", domain.ErrLocalDatabaseExists, dbPath)
	}

	spec, err := cfg.RestoreSpec()
	if err != nil {
		return "", err
	}

	logger.Info().
		Str("replica_url", cfg.ReplicaURL).
		Str("path", dbPath).
		Msg("restore started")

	res, err := r.sup.runToCompletion(ctx, spec)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(res.Stderr, "\n") {
		if line != "" {
			logger.Debug().Msg(line)
		}
	}

	if cfg.VerifyRestore {
		if err := verifyDatabase(ctx, dbPath); err != nil {
			return "", err
		}
		logger.Info().Str("path", dbPath).Msg("restored database verified")
	}
	return dbPath, nil
}

// DeleteLocal removes the local database file and its -shm/-wal sidecars.
// Missing files are not errors; calling it repeatedly is harmless.
func (r *Replicator) DeleteLocal() error {
	cfg := r.config()

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	for _, path := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		logger.Warn().Str("path", path).Msg("deleted local database file")
	}
	return nil
}
