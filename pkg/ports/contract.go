package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// RunCheckpointStoreContract verifies that a CheckpointStore implementation
// adheres to the interface contract. Adapter test files call it with a
// fresh store instance.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	threadID := "contract-thread-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(threadID, "reimburse my flight")
		state.Status = domain.StatusWaitingForHuman
		state.CurrentStage = domain.StageHumanIntervention
		state.Intent = &domain.Intent{Primary: "submit_expense", Slots: map[string]any{"amount": 650.0}}
		state.PendingTools = []domain.ToolCall{{ID: "call-1", Name: "submit_expense"}}
		state.AppendLog(domain.StageAnalysis, "intent_recognized", map[string]any{"intent": "submit_expense"})

		err := store.Save(ctx, threadID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Status, loaded.Status)
		assert.Equal(t, state.CurrentStage, loaded.CurrentStage)
		require.NotNil(t, loaded.Intent)
		assert.Equal(t, "submit_expense", loaded.Intent.Primary)
		require.Len(t, loaded.PendingTools, 1)
		assert.Equal(t, "call-1", loaded.PendingTools[0].ID)
		assert.Len(t, loaded.ExecutionLog, 1)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first := domain.NewState(threadID, "first")
		require.NoError(t, store.Save(ctx, threadID, first))

		second := domain.NewState(threadID, "second")
		second.Status = domain.StatusCompleted
		require.NoError(t, store.Save(ctx, threadID, second))

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.UserInput)
		assert.Equal(t, domain.StatusCompleted, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, threadID, domain.NewState(threadID, "hello")))

		require.NoError(t, store.Delete(ctx, threadID), "Delete should not return error")

		_, err := store.Load(ctx, threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound, "Load after Delete should return ErrThreadNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := threadID + "-1"
		id2 := threadID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1, "a"))
		_ = store.Save(ctx, id2, domain.NewState(id2, "b"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		threads, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, threads, id1)
		assert.Contains(t, threads, id2)
	})
}
