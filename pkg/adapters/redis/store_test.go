package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/aaasjp/travel-bill-agent/pkg/adapters/redis"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ports.RunCheckpointStoreContract(t, store)
}

func TestRedisStore_SuspendedRoundTrip(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ctx := context.Background()

	state := domain.NewState("t-1", "reimburse 6500 CNY")
	state.Status = domain.StatusWaitingForHuman
	state.CurrentStage = domain.StageHumanIntervention
	state.InterventionRequest = &domain.InterventionRequest{
		Type:          domain.InterventionParameterProvider,
		Priority:      domain.PriorityImportant,
		Reason:        "missing required parameters",
		MissingFields: []string{"invoice_number"},
		RequestSource: domain.StageDecision,
		CreatedAt:     time.Now().UTC(),
	}

	if err := store.Save(ctx, "t-1", state); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "t-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != domain.StatusWaitingForHuman {
		t.Fatalf("status = %s", loaded.Status)
	}
	if loaded.InterventionRequest == nil ||
		loaded.InterventionRequest.Type != domain.InterventionParameterProvider ||
		len(loaded.InterventionRequest.MissingFields) != 1 {
		t.Fatalf("intervention request lost: %+v", loaded.InterventionRequest)
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	client := newTestClient(t)
	locker := redis.NewLocker(client, "billagent:")
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "t-1", 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	// Second acquisition must block until the first releases.
	blockedCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(blockedCtx, "t-1", 10*time.Second); err == nil {
		t.Fatal("second Acquire should have blocked until ctx expiry")
	}

	if err := unlock(); err != nil {
		t.Fatal(err)
	}

	unlock2, err := locker.Acquire(ctx, "t-1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = unlock2()
}
