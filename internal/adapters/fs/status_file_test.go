package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/snapship/internal/domain"
)

func TestStatusFileRepository_SaveLoad(t *testing.T) {
	repo := NewStatusFileRepository(t.TempDir())
	ctx := context.Background()

	want := domain.Status{
		StartedAt:   time.Now().Add(-time.Minute).Truncate(time.Second),
		FinishedAt:  time.Now().Truncate(time.Second),
		Outcome:     "SnapshotConfirmed",
		ExitedEarly: true,
		OutputBytes: 128,
		Attempts:    3,
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Outcome != want.Outcome || got.Attempts != want.Attempts ||
		got.ExitedEarly != want.ExitedEarly || got.OutputBytes != want.OutputBytes {
		t.Errorf("loaded %+v, want %+v", got, want)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.FinishedAt.Equal(want.FinishedAt) {
		t.Error("timestamps did not round-trip")
	}
}

func TestStatusFileRepository_LoadMissingFile(t *testing.T) {
	repo := NewStatusFileRepository(filepath.Join(t.TempDir(), "never-created"))

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != (domain.Status{}) {
		t.Errorf("missing file should load as zero status, got %+v", got)
	}
}

func TestStatusFileRepository_LoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo := NewStatusFileRepository(dir)
	if err := os.WriteFile(repo.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt status file")
	}
}

func TestStatusFileRepository_SaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	repo := NewStatusFileRepository(dir)

	if err := repo.Save(context.Background(), domain.Status{Outcome: "Pending"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(repo.Path()); err != nil {
		t.Errorf("status file not created: %v", err)
	}
}

func TestStatusFileRepository_SaveOverwrites(t *testing.T) {
	repo := NewStatusFileRepository(t.TempDir())
	ctx := context.Background()

	if err := repo.Save(ctx, domain.Status{Attempts: 1}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, domain.Status{Attempts: 2}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", got.Attempts)
	}
}
