package snapship

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/snapship/internal/ports"
)

// stubRunner implements ports.Runner for facade tests. Each started process
// writes stderrText immediately; if exits is false it blocks until killed.
type stubRunner struct {
	mu         sync.Mutex
	startErr   error
	stderrText string
	exits      bool
	starts     int
}

func (r *stubRunner) Start(_ context.Context, spec ports.CommandSpec, _, stderr io.Writer) (ports.Process, error) {
	r.mu.Lock()
	r.starts++
	r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	if r.stderrText != "" {
		io.WriteString(stderr, r.stderrText)
	}
	return &stubProcess{exits: r.exits, killed: make(chan struct{})}, nil
}

func (r *stubRunner) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

type stubProcess struct {
	exits    bool
	killed   chan struct{}
	killOnce sync.Once
}

func (p *stubProcess) Wait() error {
	if p.exits {
		return nil
	}
	<-p.killed
	return errors.New("signal: killed")
}

func (p *stubProcess) Kill() error {
	p.killOnce.Do(func() { close(p.killed) })
	return nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AccessKey = "key"
	cfg.SecretKey = "token"
	cfg.ReplicaURL = "s3://test/db"
	cfg.Folder = filepath.Join(t.TempDir(), "data")
	return cfg
}

// seedLocalDB creates the local database file the agent replicates from.
func seedLocalDB(t *testing.T, cfg Config) string {
	t.Helper()
	path, err := cfg.DBPath()
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitForState(t *testing.T, a *Agent, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if a.Status() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", a.Status(), want)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	// No credentials, no replica URL.
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New error = %v, want ErrInvalidConfig", err)
	}
}

func TestAgent_ReplicateOnceConfirmed(t *testing.T) {
	cfg := testConfig(t)
	path := seedLocalDB(t, cfg)

	runner := &stubRunner{stderrText: "snapshot written to s3\n", exits: true}
	a, err := New(cfg, withRunner(runner))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	confirmed, err := a.ReplicateOnce(context.Background())
	if err != nil {
		t.Fatalf("ReplicateOnce failed: %v", err)
	}
	if !confirmed {
		t.Fatal("expected confirmed snapshot")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("local database should be deleted after confirmed snapshot")
	}
}

func TestAgent_StartRunsToStopped(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReplicateTimeout = 5 * time.Second
	seedLocalDB(t, cfg)

	runner := &stubRunner{stderrText: "snapshot written\n", exits: true}
	handler := &recordingHandler{}
	a, err := New(cfg, withRunner(runner), WithEventHandler(handler))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForState(t, a, StateStopped)

	if runner.startCount() != 1 {
		t.Errorf("started %d processes, want 1", runner.startCount())
	}
	if n := handler.confirmedAttempts(); n != 1 {
		t.Errorf("confirmed attempts = %d, want 1", n)
	}
}

func TestAgent_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReplicateTimeout = time.Minute
	seedLocalDB(t, cfg)

	runner := &stubRunner{stderrText: "still replicating\n"}
	a, err := New(cfg, withRunner(runner))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitForState(t, a, StateRunning)

	if err := a.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start error = %v, want ErrAlreadyRunning", err)
	}

	if err := a.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := a.Status(); got != StateStopped {
		t.Errorf("state after Stop = %v, want Stopped", got)
	}
}

func TestAgent_StopWhenStopped(t *testing.T) {
	a, err := New(testConfig(t), withRunner(&stubRunner{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := a.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop error = %v, want ErrNotRunning", err)
	}
}

func TestAgent_RestoreRefusesExistingDB(t *testing.T) {
	cfg := testConfig(t)
	seedLocalDB(t, cfg)

	a, err := New(cfg, withRunner(&stubRunner{exits: true}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := a.Restore(context.Background()); !errors.Is(err, ErrLocalDatabaseExists) {
		t.Errorf("Restore error = %v, want ErrLocalDatabaseExists", err)
	}
}

func TestAgent_DeleteLocalIdempotent(t *testing.T) {
	cfg := testConfig(t)
	path := seedLocalDB(t, cfg)

	a, err := New(cfg, withRunner(&stubRunner{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := a.DeleteLocal(); err != nil {
		t.Fatalf("DeleteLocal failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("database file still present")
	}
	if err := a.DeleteLocal(); err != nil {
		t.Errorf("second DeleteLocal failed: %v", err)
	}
}

// recordingHandler collects events delivered by the agent.
type recordingHandler struct {
	mu       sync.Mutex
	states   []StateChangeEvent
	attempts []AttemptEvent
}

func (h *recordingHandler) OnStateChange(ev StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, ev)
}

func (h *recordingHandler) OnAttempt(ev AttemptEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts = append(h.attempts, ev)
}

func (h *recordingHandler) confirmedAttempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, a := range h.attempts {
		if a.Confirmed {
			n++
		}
	}
	return n
}
