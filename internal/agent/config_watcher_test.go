package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFileAt(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFileAt(t, path, "replicate_timeout = \"45s\"\ninterval = \"5m\"\n")

	cfg := validConfig(t)
	rep := NewReplicator(cfg, &fakeRunner{}, nil)
	w := NewConfigWatcher(path, rep)

	w.reload()

	got := rep.config()
	if got.ReplicateTimeout != 45*time.Second {
		t.Errorf("ReplicateTimeout = %v, want 45s", got.ReplicateTimeout)
	}
	if got.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m", got.Interval)
	}
}

func TestConfigWatcher_ReloadBadFileLeavesTimings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFileAt(t, path, "replicate_timeout = [broken\n")

	cfg := validConfig(t)
	want := cfg.ReplicateTimeout
	rep := NewReplicator(cfg, &fakeRunner{}, nil)
	w := NewConfigWatcher(path, rep)

	w.reload()

	if got := rep.config().ReplicateTimeout; got != want {
		t.Errorf("ReplicateTimeout = %v, want unchanged %v", got, want)
	}
}

func TestConfigWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFileAt(t, path, "interval = \"1m\"\n")

	cfg := validConfig(t)
	rep := NewReplicator(cfg, &fakeRunner{}, nil)
	w := NewConfigWatcher(path, rep)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)
	writeConfigFileAt(t, path, "interval = \"7m\"\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if rep.config().Interval == 7*time.Minute {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("Interval = %v, want 7m after config change", rep.config().Interval)
}

func TestConfigWatcher_EmptyPathReturns(t *testing.T) {
	rep := NewReplicator(validConfig(t), &fakeRunner{}, nil)
	w := NewConfigWatcher("", rep)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for empty path")
	}
}
