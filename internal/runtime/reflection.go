package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// ReflectionStage evaluates the turn: it is the circuit breaker against
// repeated actions, judges execution failures, and decides whether to
// continue, replan, escalate, or end.
type ReflectionStage struct {
	deps *Deps
}

func NewReflectionStage(deps *Deps) *ReflectionStage { return &ReflectionStage{deps: deps} }

func (s *ReflectionStage) ID() domain.StageID { return domain.StageReflection }

func (s *ReflectionStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()
	refl := &domain.Reflection{}

	// The repeated-action guard runs before anything else: a loop must
	// reach a human, never a silent retry.
	if lerr := detectLoop(next.ExecutionLog, loopWindow, loopThreshold); lerr != nil {
		refl.DetectedRepetition = true
		refl.Action = domain.ReflectionEscalate
		refl.Rationale = lerr.Error()
		next.RecordError(domain.StageReflection, lerr.Error())
		next.Reflection = refl
		next.Status = domain.StatusRunning
		next.AppendLog(domain.StageReflection, "loop_detected", map[string]any{"tool": lerr.Tool, "count": lerr.Count})
		return next, nil
	}

	executed, succeeded, failed := tally(next)
	if executed > 0 {
		refl.CompletionRate = float64(succeeded) / float64(executed)
	} else if len(next.Plan) == 0 {
		refl.CompletionRate = 1
	}
	for _, name := range failed {
		refl.MissingAspects = append(refl.MissingAspects, name+" failed")
	}
	for _, res := range next.ToolResults {
		if res.Success {
			refl.SuccessAspects = append(refl.SuccessAspects, res.Name)
		}
	}

	switch {
	case next.Status == domain.StatusExecutionFailed:
		// A non-skippable tool failed; the turn cannot end as if money
		// moved. Escalate.
		refl.Action = domain.ReflectionEscalate
		refl.Rationale = "a required tool failed: " + strings.Join(failed, ", ")
		next.Status = domain.StatusRunning

	case unexecutedSteps(next) > 0:
		refl.Action = domain.ReflectionContinue
		refl.Rationale = fmt.Sprintf("%d plan steps still unexecuted", unexecutedSteps(next))
		next.Status = domain.StatusRunning

	default:
		refl.Action = domain.ReflectionEnd
		refl.FinalOutput = summarize(next, failed)
		next.FinalOutput = refl.FinalOutput
		next.Messages = append(next.Messages, domain.Message{Role: "assistant", Content: refl.FinalOutput, At: next.UpdatedAt})
		next.Status = domain.StatusCompleted
	}

	next.Reflection = refl
	next.AppendLog(domain.StageReflection, "reflection_completed", map[string]any{
		"action":          string(refl.Action),
		"completion_rate": refl.CompletionRate,
	})
	return next, nil
}

func tally(state *domain.State) (executed, succeeded int, failed []string) {
	for _, call := range state.CompletedTools {
		res, ok := state.ToolResults[call.ID]
		if !ok {
			continue
		}
		executed++
		if res.Success {
			succeeded++
		} else {
			failed = append(failed, call.Name)
		}
	}
	return executed, succeeded, failed
}

func unexecutedSteps(state *domain.State) int {
	n := 0
	for _, step := range state.Plan {
		if !hasStep(state.CompletedTools, step.ID) && !hasStep(state.PendingTools, step.ID) {
			n++
		}
	}
	// Validated-but-pending steps still count as work to do.
	n += len(state.PendingTools)
	return n
}

// summarize renders the user-facing result of a completed turn.
func summarize(state *domain.State, failed []string) string {
	var b strings.Builder
	if len(state.CompletedTools) == 0 {
		b.WriteString("No actions were needed for this request.")
		return b.String()
	}

	b.WriteString("Done. ")
	for _, call := range state.CompletedTools {
		res, ok := state.ToolResults[call.ID]
		if !ok || !res.Success {
			continue
		}
		b.WriteString(call.Name)
		if data, ok := res.Data.(map[string]any); ok {
			if billID, ok := data["bill_id"].(string); ok {
				b.WriteString(" (bill " + billID + ")")
			}
			if status, ok := data["status"].(string); ok {
				b.WriteString(" [" + status + "]")
			}
		}
		b.WriteString("; ")
	}
	if len(failed) > 0 {
		b.WriteString("not completed: " + strings.Join(failed, ", ") + ".")
	}
	return strings.TrimSuffix(strings.TrimSpace(b.String()), ";")
}
