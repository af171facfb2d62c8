package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bft-labs/snapship/internal/domain"
	"github.com/bft-labs/snapship/internal/ports"
)

// DefaultBinary is the external replication executable resolved via PATH.
const DefaultBinary = "litestream"

// Environment variable names the external binary reads its credentials from.
const (
	EnvAccessKey = "LITESTREAM_ACCESS_KEY_ID"
	EnvSecretKey = "LITESTREAM_SECRET_ACCESS_KEY"
)

var (
	// replicaURLPattern is the required shape of the remote object-store URL,
	// e.g. s3://bucket/pathname.
	replicaURLPattern = regexp.MustCompile(`^s3://.*$`)

	// dbNamePattern constrains the local database file name: a short
	// lowercase stem and a .sqlite or .db extension.
	dbNamePattern = regexp.MustCompile(`^[a-z]{1,20}.*\.(sqlite|db)$`)
)

const (
	maxReplicaURLLen = 100
	maxDBNameLen     = 50
)

// Config holds the configuration for the replication agent. It is constructed
// once at startup, validated, and passed explicitly to every component; there
// is no process-wide config singleton.
type Config struct {
	// AccessKey and SecretKey authenticate the external binary against the
	// remote object store. Both are required.
	AccessKey string
	SecretKey string

	// ReplicaURL is the object-store location holding the durable copy of
	// the database. Must match s3://... and is required.
	ReplicaURL string

	// Folder is the directory holding the local database file. Created
	// lazily on first DBPath call.
	Folder string

	// DBName is the local database file name, e.g. db.sqlite.
	DBName string

	// Binary is the external replication executable. Overridable for tests
	// and for pinned install locations.
	Binary string

	// ReplicateTimeout bounds one replication attempt. The replicate
	// process streams forever by design, so the attempt ends either with a
	// confirmed snapshot inside this window or with a kill at its edge.
	ReplicateTimeout time.Duration

	// Interval is the pause between attempts in continuous mode.
	Interval time.Duration

	// StateDir is where the last-attempt status file lives. Defaults to Folder.
	StateDir string

	// VerifyRestore enables the post-restore check that the restored file
	// exists, is non-empty, and is a readable SQLite database.
	VerifyRestore bool

	// Once makes Run perform a single attempt and return.
	Once bool
}

// DefaultConfig returns a Config with default values.
// AccessKey, SecretKey and ReplicaURL must still be provided, typically from
// the environment via ApplyEnvConfig.
func DefaultConfig() Config {
	return Config{
		Folder:           filepath.Join(".", "data"),
		DBName:           "db.sqlite",
		Binary:           DefaultBinary,
		ReplicateTimeout: 30 * time.Second,
		Interval:         time.Minute,
		VerifyRestore:    true,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// All failures wrap domain.ErrInvalidConfig and are fatal at startup.
func (c *Config) Validate() error {
	if c.AccessKey == "" {
		return fmt.Errorf("%w: access key is required (set %s)", domain.ErrInvalidConfig, EnvAccessKey)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret key is required (set %s)", domain.ErrInvalidConfig, EnvSecretKey)
	}
	if c.ReplicaURL == "" {
		return fmt.Errorf("%w: replica URL is required (set %s)", domain.ErrInvalidConfig, EnvReplicaURL)
	}
	if len(c.ReplicaURL) > maxReplicaURLLen {
		return fmt.Errorf("%w: replica URL exceeds %d characters", domain.ErrInvalidConfig, maxReplicaURLLen)
	}
	if !replicaURLPattern.MatchString(c.ReplicaURL) {
		return fmt.Errorf("%w: replica URL %q must match s3://bucket/pathname", domain.ErrInvalidConfig, c.ReplicaURL)
	}
	if c.Folder == "" {
		return fmt.Errorf("%w: folder is required", domain.ErrInvalidConfig)
	}
	if len(c.DBName) > maxDBNameLen {
		return fmt.Errorf("%w: db name exceeds %d characters", domain.ErrInvalidConfig, maxDBNameLen)
	}
	if !dbNamePattern.MatchString(c.DBName) {
		return fmt.Errorf("%w: db name %q must match a lowercase stem with a .sqlite or .db extension", domain.ErrInvalidConfig, c.DBName)
	}
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.ReplicateTimeout <= 0 {
		return fmt.Errorf("%w: replicate timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", domain.ErrInvalidConfig)
	}
	if c.StateDir == "" {
		c.StateDir = c.Folder
	}
	return nil
}

// DBPath returns the local database path Folder/DBName, creating Folder if it
// does not exist yet. Creation is idempotent; repeated calls are cheap.
func (c *Config) DBPath() (string, error) {
	if err := os.MkdirAll(c.Folder, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return filepath.Join(c.Folder, c.DBName), nil
}

// ReplicateSpec returns the process invocation for one replication attempt:
// `<binary> replicate <dbpath> <replica-url>`, credentials via environment.
func (c *Config) ReplicateSpec() (ports.CommandSpec, error) {
	dbPath, err := c.DBPath()
	if err != nil {
		return ports.CommandSpec{}, err
	}
	return ports.CommandSpec{
		Name: c.Binary,
		Args: []string{"replicate", dbPath, c.ReplicaURL},
		Env:  c.credentialEnv(),
	}, nil
}

// RestoreSpec returns the process invocation for a one-shot restore:
// `<binary> restore -v -o <dbpath> <replica-url>`.
func (c *Config) RestoreSpec() (ports.CommandSpec, error) {
	dbPath, err := c.DBPath()
	if err != nil {
		return ports.CommandSpec{}, err
	}
	return ports.CommandSpec{
		Name: c.Binary,
		Args: []string{"restore", "-v", "-o", dbPath, c.ReplicaURL},
		Env:  c.credentialEnv(),
	}, nil
}

func (c *Config) credentialEnv() []string {
	return []string{
		EnvAccessKey + "=" + c.AccessKey,
		EnvSecretKey + "=" + c.SecretKey,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
