package snapship_test

import (
	"context"
	"fmt"

	"github.com/bft-labs/snapship"
	"github.com/bft-labs/snapship/pkg/log"
)

// ExampleNew demonstrates how to embed snapship in your application.
func ExampleNew() {
	cfg := snapship.DefaultConfig()
	cfg.AccessKey = "your-access-key"
	cfg.SecretKey = "your-secret-key"
	cfg.ReplicaURL = "s3://my-bucket/my-db"
	cfg.Folder = "/var/lib/myapp"
	cfg.DBName = "app.sqlite"

	a, err := snapship.New(cfg, snapship.WithLogger(log.NewConsoleLogger()))
	if err != nil {
		fmt.Printf("failed to create agent: %v\n", err)
		return
	}

	// Start replication attempts in the background (non-blocking).
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	// Stop gracefully; an attempt in flight is killed and drained first.
	_ = a.Stop()
}

// ExampleAgent_Restore demonstrates the one-shot restore path.
func ExampleAgent_Restore() {
	cfg := snapship.DefaultConfig()
	cfg.AccessKey = "your-access-key"
	cfg.SecretKey = "your-secret-key"
	cfg.ReplicaURL = "s3://my-bucket/my-db"

	a, err := snapship.New(cfg)
	if err != nil {
		fmt.Printf("failed to create agent: %v\n", err)
		return
	}

	// Restore refuses to overwrite an existing local database, so clear
	// it first when a fresh copy is wanted.
	if err := a.DeleteLocal(); err != nil {
		fmt.Printf("failed to delete local database: %v\n", err)
		return
	}
	path, err := a.Restore(context.Background())
	if err != nil {
		fmt.Printf("restore failed: %v\n", err)
		return
	}
	fmt.Printf("database restored to %s\n", path)
}

// Example_withEventHandler demonstrates receiving agent events.
func Example_withEventHandler() {
	handler := &attemptLogger{}

	cfg := snapship.DefaultConfig()
	cfg.AccessKey = "your-access-key"
	cfg.SecretKey = "your-secret-key"
	cfg.ReplicaURL = "s3://my-bucket/my-db"

	a, err := snapship.New(cfg, snapship.WithEventHandler(handler))
	if err != nil {
		fmt.Printf("failed to create agent: %v\n", err)
		return
	}

	_ = a // Use agent instance...
}

// attemptLogger implements snapship.EventHandler.
type attemptLogger struct{}

func (h *attemptLogger) OnStateChange(ev snapship.StateChangeEvent) {
	fmt.Printf("state: %s -> %s (%s)\n", ev.Previous, ev.Current, ev.Reason)
}

func (h *attemptLogger) OnAttempt(ev snapship.AttemptEvent) {
	fmt.Printf("attempt finished: %s (confirmed=%v)\n", ev.Outcome, ev.Confirmed)
}
