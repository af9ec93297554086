// Package session serializes access to thread checkpoints.
//
// In-process serialization uses per-thread mutexes garbage collected by
// reference counting; multi-instance deployments add a distributed
// locker on top.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aaasjp/travel-bill-agent/internal/logging"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager coordinates thread access over a checkpoint store.
type Manager struct {
	store ports.CheckpointStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking for multi-instance deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for internal events like deferred
// unlock failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager over the given checkpoint store.
func NewManager(store ports.CheckpointStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must Lock entry.mu and call release(threadID) after unlocking.
func (m *Manager) acquire(threadID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		entry = &lockEntry{}
		m.locks[threadID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, threadID)
	}
}

// Load retrieves an existing thread snapshot.
func (m *Manager) Load(ctx context.Context, threadID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, threadID)
		return err
	})
	return state, err
}

// LoadOrStart loads a thread, or initializes and persists a fresh state
// when none exists yet.
func (m *Manager) LoadOrStart(ctx context.Context, threadID, userInput string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, threadID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrThreadNotFound) {
			return fmt.Errorf("failed to check thread existence: %w", err)
		}

		state = domain.NewState(threadID, userInput)

		// Persist immediately to reserve the ID.
		if err := m.store.Save(ctx, threadID, state); err != nil {
			return fmt.Errorf("failed to initialize thread: %w", err)
		}
		return nil
	})
	return state, err
}

// Save persists a thread snapshot.
func (m *Manager) Save(ctx context.Context, threadID string, state *domain.State) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Save(ctx, threadID, state)
	})
}

// Delete removes a thread snapshot.
func (m *Manager) Delete(ctx context.Context, threadID string) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Delete(ctx, threadID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying checkpoint store.
func (m *Manager) Store() ports.CheckpointStore {
	return m.store
}

// WithLock executes fn while holding the lock for the thread.
func (m *Manager) WithLock(ctx context.Context, threadID string, fn func(context.Context) error) error {
	entry := m.acquire(threadID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(threadID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Acquire(ctx, threadID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"thread_id", threadID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
