package memory

import (
	"context"
	"testing"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
)

func TestStoreContract(t *testing.T) {
	ports.RunCheckpointStoreContract(t, NewStore())
}

func TestSaveIsolation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	state := domain.NewState("iso", "hello")
	if err := store.Save(ctx, "iso", state); err != nil {
		t.Fatal(err)
	}

	// Mutating the original after Save must not affect the snapshot.
	state.Status = domain.StatusCompleted
	state.Plan = append(state.Plan, domain.PlanStep{ID: "step_1"})

	loaded, err := store.Load(ctx, "iso")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != domain.StatusRunning {
		t.Fatalf("snapshot status mutated: %s", loaded.Status)
	}
	if len(loaded.Plan) != 0 {
		t.Fatalf("snapshot plan mutated: %v", loaded.Plan)
	}

	// Mutating a loaded copy must not affect the stored snapshot either.
	loaded.UserInput = "tampered"
	again, err := store.Load(ctx, "iso")
	if err != nil {
		t.Fatal(err)
	}
	if again.UserInput != "hello" {
		t.Fatalf("stored snapshot mutated through Load copy: %q", again.UserInput)
	}
}
