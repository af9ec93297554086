package ports

import (
	"context"
	"time"
)

// DistributedLocker coordinates thread ownership across processes.
// In-process serialization is handled by the session manager; this port
// exists for multi-instance deployments backed by Redis.
type DistributedLocker interface {
	// Acquire takes the lock for a thread, returning an unlock function.
	// It blocks until the lock is held or ctx is done.
	Acquire(ctx context.Context, threadID string, ttl time.Duration) (unlock func() error, err error)
}
