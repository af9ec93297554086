package runtime

import (
	"context"
	"encoding/json"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// ToolExecutionStage runs pending tool calls strictly in order. A
// failure is recorded, not thrown; only a non-skippable failure halts
// the pipeline.
type ToolExecutionStage struct {
	deps *Deps
}

func NewToolExecutionStage(deps *Deps) *ToolExecutionStage { return &ToolExecutionStage{deps: deps} }

func (s *ToolExecutionStage) ID() domain.StageID { return domain.StageToolExecution }

func (s *ToolExecutionStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()
	pending := next.PendingTools
	next.PendingTools = nil

	for i, call := range pending {
		next.AppendToolLog(domain.StageToolExecution, "tool_executed", call.Name, call.Arguments)

		out, err := s.deps.Registry.Invoke(ctx, call.Name, call.Arguments)
		if s.deps.Metrics != nil {
			outcome := "success"
			if err != nil {
				outcome = "error"
			}
			s.deps.Metrics.ToolExecutions.WithLabelValues(call.Name, outcome).Inc()
		}
		if err != nil {
			terr := &domain.ToolExecutionError{CallID: call.ID, Tool: call.Name, Cause: err}
			next.ToolResults[call.ID] = domain.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Success: false,
				Error:   err.Error(),
			}
			next.RecordError(domain.StageToolExecution, terr.Error())
			next.CompletedTools = append(next.CompletedTools, call)
			s.deps.Logger.Warn("tool failed", "thread_id", next.ThreadID, "tool", call.Name, "err", err)

			if call.NonSkippable {
				// Later calls may depend on this output; leave them
				// pending for a resumed or replanned attempt.
				next.PendingTools = pending[i+1:]
				next.Status = domain.StatusExecutionFailed
				return next, nil
			}
			continue
		}

		next.ToolResults[call.ID] = domain.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Success: true,
			Data:    normalizeResult(out),
		}
		next.CompletedTools = append(next.CompletedTools, call)
	}

	next.Status = domain.StatusRunning
	return next, nil
}

// normalizeResult round-trips a tool result through JSON so in-memory
// results have the same shape as checkpoint-restored ones. Parameter
// backfill relies on map-shaped data.
func normalizeResult(out any) any {
	data, err := json.Marshal(out)
	if err != nil {
		return out
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return out
	}
	return normalized
}
