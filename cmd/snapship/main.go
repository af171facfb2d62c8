package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/snapship"
	"github.com/bft-labs/snapship/internal/agent"
	"github.com/bft-labs/snapship/pkg/log"
)

const helpDescription = `
Replicate a local SQLite database to an s3 bucket and restore it back,
supervising the external litestream binary with bounded attempts.

Highlights:
  - One bounded replication attempt per window; the snapshot confirmation
    comes from the tool's own output, never from its exit code.
  - After a confirmed snapshot the local file is deleted; the replica is
    authoritative.
  - Restore verifies the reconstructed database before reporting success.
  - Configure via file, environment, or flags.

Credentials and the replica URL come from LITESTREAM_ACCESS_KEY_ID,
LITESTREAM_SECRET_ACCESS_KEY and REPLICA_URL.
`

var exampleUsage = strings.TrimSpace(`
  snapship replicate --timeout 30s --once
  snapship restore --folder ./data --db db.sqlite
  snapship replicate --config $HOME/.snapship/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := agent.DefaultConfig()
	var cfgPath string

	logger := agent.Logger()

	root := &cobra.Command{
		Use:     "snapship",
		Short:   "Supervised SQLite replication to an s3 bucket",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
	}

	// loadConfig resolves precedence: flags > environment > config file > defaults.
	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = agent.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && agent.FileExists(cfgFile) {
			fc, err := agent.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := agent.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		if err := agent.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		// Log configuration with secrets masked.
		logCfg := cfg
		if len(logCfg.AccessKey) > 0 {
			logCfg.AccessKey = "*****"
		}
		if len(logCfg.SecretKey) > 0 {
			logCfg.SecretKey = "*****"
		}
		logger.Info().Interface("config", logCfg).Msg("configuration")
		return nil
	}

	replicateCmd := &cobra.Command{
		Use:   "replicate",
		Short: "Run bounded replication attempts against the replica URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}

			opts := []snapship.Option{
				snapship.WithLogger(log.NewZerologLogger(logger)),
			}
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = agent.DefaultConfigPath()
			}
			if cfgFile != "" && agent.FileExists(cfgFile) {
				opts = append(opts, snapship.WithConfigWatcher(cfgFile))
			}

			a, err := snapship.New(cfg, opts...)
			if err != nil {
				return fmt.Errorf("create agent: %w", err)
			}

			if cfg.Once {
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				confirmed, err := a.ReplicateOnce(ctx)
				if err != nil {
					return err
				}
				if !confirmed {
					return fmt.Errorf("no snapshot confirmed within %s", cfg.ReplicateTimeout)
				}
				return nil
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("start agent: %w", err)
			}

			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := a.Status()
						if status == snapship.StateStopped || status == snapship.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				logger.Info().Msg("received signal, stopping...")
				if err := a.Stop(); err != nil {
					return fmt.Errorf("stop agent: %w", err)
				}
			case <-doneCh:
				if a.Status() == snapship.StateCrashed {
					return fmt.Errorf("agent crashed")
				}
			}
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "Delete the local database and restore it from the replica URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}

			a, err := snapship.New(cfg, snapship.WithLogger(log.NewZerologLogger(logger)))
			if err != nil {
				return fmt.Errorf("create agent: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.DeleteLocal(); err != nil {
				return fmt.Errorf("delete local: %w", err)
			}
			path, err := a.Restore(ctx)
			if err != nil {
				return err
			}
			logger.Info().Str("path", path).Msg("database restored")
			return nil
		},
	}

	// Shared flags
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.snapship/config.toml)")
	root.PersistentFlags().StringVar(&cfg.Folder, "folder", cfg.Folder, "directory holding the local database file")
	root.PersistentFlags().StringVar(&cfg.DBName, "db", cfg.DBName, "local database file name (.sqlite or .db)")
	root.PersistentFlags().StringVar(&cfg.ReplicaURL, "replica-url", cfg.ReplicaURL, "s3://bucket/pathname replica location")
	root.PersistentFlags().StringVar(&cfg.Binary, "binary", cfg.Binary, "external replication executable")
	root.PersistentFlags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "state directory for status.json (defaults to folder)")
	if err := root.PersistentFlags().MarkHidden("state-dir"); err != nil {
		logger.Info().Err(err).Msg("failed to hide state-dir flag")
	}

	replicateCmd.Flags().DurationVar(&cfg.ReplicateTimeout, "timeout", cfg.ReplicateTimeout, "bound for one replication attempt")
	replicateCmd.Flags().DurationVar(&cfg.Interval, "interval", cfg.Interval, "pause between attempts in continuous mode")
	replicateCmd.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "perform a single attempt and exit")

	restoreCmd.Flags().BoolVar(&cfg.VerifyRestore, "verify-restore", cfg.VerifyRestore, "verify the restored database before reporting success")

	root.AddCommand(replicateCmd, restoreCmd)

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("snapship")
		os.Exit(1)
	}
}
