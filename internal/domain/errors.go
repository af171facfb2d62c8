package domain

import "errors"

// Domain errors represent error conditions in the snapship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	// It is fatal at startup; callers must not proceed without valid config.
	ErrInvalidConfig = errors.New("snapship: invalid configuration")

	// ErrSpawn is returned when the external replication binary could not
	// be launched (not found, permission denied). It is fatal for the call
	// that hit it but carries no retry policy of its own.
	ErrSpawn = errors.New("snapship: spawn failed")

	// ErrRestoreFailed is returned when the restore process terminated but
	// the expected local database file is absent, empty, or fails the
	// integrity check.
	ErrRestoreFailed = errors.New("snapship: restore failed")

	// ErrLocalDatabaseExists is returned by restore when the local database
	// file is already present. Delete it first to avoid merging a stale
	// local copy with the restored one.
	ErrLocalDatabaseExists = errors.New("snapship: local database exists")

	// ErrAlreadyRunning is returned when Start() is called on a running agent.
	ErrAlreadyRunning = errors.New("snapship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped agent.
	ErrNotRunning = errors.New("snapship: not running")
)
