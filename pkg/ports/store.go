package ports

import (
	"context"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// CheckpointStore persists execution state snapshots keyed by thread ID.
// A load-then-persist cycle for a given thread must be atomic at thread-key
// granularity; last-writer-wins is acceptable.
type CheckpointStore interface {
	// Save persists the snapshot for a thread.
	Save(ctx context.Context, threadID string, state *domain.State) error

	// Load retrieves the snapshot for a thread.
	// Returns domain.ErrThreadNotFound if the thread does not exist.
	Load(ctx context.Context, threadID string) (*domain.State, error)

	// Delete removes the snapshot for a thread. Retention policy is
	// external; the engine never calls Delete on its own.
	Delete(ctx context.Context, threadID string) error

	// List returns the thread IDs with stored snapshots.
	List(ctx context.Context) ([]string, error)
}
