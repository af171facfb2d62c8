package agent

import "os"

// EnvReplicaURL names the environment variable carrying the replica URL.
// The credential variable names live in config.go next to the binary contract.
const EnvReplicaURL = "REPLICA_URL"

// ApplyEnvConfig applies configuration from environment variables.
// Credentials and the replica URL use the names the external tooling already
// standardises on; everything else is namespaced SNAPSHIP_*.
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("access-key", os.Getenv(EnvAccessKey), &cfg.AccessKey)
	s.setString("secret-key", os.Getenv(EnvSecretKey), &cfg.SecretKey)
	s.setString("replica-url", os.Getenv(EnvReplicaURL), &cfg.ReplicaURL)

	s.setString("folder", os.Getenv("SNAPSHIP_FOLDER"), &cfg.Folder)
	s.setString("db", os.Getenv("SNAPSHIP_DB"), &cfg.DBName)
	s.setString("binary", os.Getenv("SNAPSHIP_BINARY"), &cfg.Binary)
	s.setString("state-dir", os.Getenv("SNAPSHIP_STATE_DIR"), &cfg.StateDir)

	if err := s.setDuration("timeout", os.Getenv("SNAPSHIP_REPLICATE_TIMEOUT"), &cfg.ReplicateTimeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", os.Getenv("SNAPSHIP_INTERVAL"), &cfg.Interval); err != nil {
		return err
	}

	s.setBoolFromString("verify-restore", os.Getenv("SNAPSHIP_VERIFY_RESTORE"), &cfg.VerifyRestore)
	s.setBoolFromString("once", os.Getenv("SNAPSHIP_ONCE"), &cfg.Once)

	return nil
}
