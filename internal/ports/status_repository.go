package ports

import (
	"context"

	"github.com/bft-labs/snapship/internal/domain"
)

// StatusRepository handles persistence of the last-attempt status for crash
// observability. Implementations persist atomically (e.g. write to a temp
// file, then rename) so a crash never leaves a half-written record.
type StatusRepository interface {
	// Load retrieves the last saved status.
	// Returns a zero status and nil error if none exists.
	// Returns an error only for actual read failures.
	Load(ctx context.Context) (domain.Status, error)

	// Save persists the status atomically.
	Save(ctx context.Context, status domain.Status) error
}
