package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaasjp/travel-bill-agent/internal/llm"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

const planningSystemPrompt = `You are the planner of a corporate travel reimbursement assistant.
Given the recognized intent, its slots, the available tools, and policy excerpts,
produce an ordered execution plan as a single JSON object:
{
  "steps": [
    {
      "step_id": "step_1",
      "step_name": "<short name>",
      "action": "<what the step accomplishes>",
      "tool": {"name": "<tool name>", "arguments": {"<param>": <value>}}
    }
  ]
}
Use only listed tools. Fill arguments from the slots; leave out values you do not know.
Return {"steps": []} when no tool is needed. Respond with JSON only.`

// PlanningStage builds the ordered tool plan for the recognized intent.
// Entering Planning always discards the prior attempt: plan, tool
// pipeline, and tool results are rebuilt from scratch.
type PlanningStage struct {
	deps *Deps
}

func NewPlanningStage(deps *Deps) *PlanningStage { return &PlanningStage{deps: deps} }

func (s *PlanningStage) ID() domain.StageID { return domain.StagePlanning }

func (s *PlanningStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()
	next.InterventionResponse = nil

	next.Plan = nil
	next.PendingTools = nil
	next.ValidatedTools = nil
	next.CompletedTools = nil
	next.ToolResults = make(map[string]domain.ToolResult)
	next.Reflection = nil

	if next.Intent == nil || next.Intent.Conversational {
		next.Status = domain.StatusConversationReady
		next.AppendLog(domain.StagePlanning, "conversation_routed", nil)
		return next, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Intent: " + next.Intent.Primary + "\n")
	if len(next.Intent.Slots) > 0 {
		prompt.WriteString(fmt.Sprintf("Slots: %v\n", next.Intent.Slots))
	}
	prompt.WriteString("\nAvailable tools:\n" + s.deps.Registry.Describe())
	if kctx := s.deps.retrieveContext(ctx, planQuery(next.Intent)); kctx != "" {
		prompt.WriteString("\nPolicy excerpts:\n" + kctx)
	}

	out, err := s.deps.LLM.Complete(ctx, planningSystemPrompt, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("task planning: %w", err)
	}

	var parsed struct {
		Steps []domain.PlanStep `json:"steps"`
	}
	if err := llm.DecodeJSON(out, &parsed); err != nil {
		return nil, fmt.Errorf("task planning: %w", err)
	}

	if len(parsed.Steps) == 0 {
		next.Status = domain.StatusConversationReady
		next.AppendLog(domain.StagePlanning, "conversation_routed", map[string]any{"reason": "empty plan"})
		return next, nil
	}

	next.Plan = parsed.Steps
	next.Status = domain.StatusDecisionReady
	next.AppendLog(domain.StagePlanning, "plan_created", map[string]any{"steps": len(parsed.Steps)})
	return next, nil
}

// planQuery derives the retrieval query deterministically from the
// intent, avoiding an extra model call per plan.
func planQuery(intent *domain.Intent) string {
	parts := []string{strings.ReplaceAll(intent.Primary, "_", " ")}
	for _, key := range []string{"category", "destination", "amount"} {
		if v, ok := intent.Slots[key]; ok {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " ")
}
