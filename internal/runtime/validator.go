package runtime

import (
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/registry"
)

// Gap reports a plan step whose tool call cannot be fully specified.
type Gap struct {
	StepID        string
	Tool          string
	MissingFields []string
	Reason        string
}

// Validator turns plan steps into ready-to-run tool-call descriptors.
type Validator struct {
	registry *registry.Registry
}

// NewValidator builds a validator over a tool registry.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate walks the plan in order and appends a fully-specified
// descriptor to pendingTools (and validatedTools) for every step not
// yet handled. Missing required arguments are backfilled from earlier
// tool results in the same turn. The first unresolvable step stops
// assembly and is returned as a Gap; later steps may depend on its
// output, so they are not assembled past it.
//
// Validate is idempotent: steps already present in validatedTools or
// completedTools are skipped untouched.
func (v *Validator) Validate(state *domain.State) *Gap {
	for _, step := range state.Plan {
		if hasStep(state.ValidatedTools, step.ID) || hasStep(state.CompletedTools, step.ID) {
			continue
		}

		tool, err := v.registry.Get(step.Tool.Name)
		if err != nil {
			return &Gap{StepID: step.ID, Tool: step.Tool.Name, Reason: err.Error()}
		}

		args := make(map[string]any, len(step.Tool.Arguments))
		for k, val := range step.Tool.Arguments {
			args[k] = val
		}

		params := tool.Parameters()
		for _, field := range params.Missing(args) {
			if val, ok := backfill(state, field); ok {
				args[field] = val
			}
		}

		if missing := params.Missing(args); len(missing) > 0 {
			verr := &domain.ValidationError{Tool: step.Tool.Name, MissingFields: missing}
			return &Gap{StepID: step.ID, Tool: step.Tool.Name, MissingFields: missing, Reason: verr.Error()}
		}
		if err := params.Validate(args); err != nil {
			return &Gap{StepID: step.ID, Tool: step.Tool.Name, Reason: err.Error()}
		}

		call := domain.ToolCall{
			ID:           domain.NewID(),
			StepID:       step.ID,
			Name:         step.Tool.Name,
			Arguments:    args,
			NonSkippable: tool.NonSkippable(),
		}
		state.PendingTools = append(state.PendingTools, call)
		state.ValidatedTools = append(state.ValidatedTools, call)
	}
	return nil
}

func hasStep(calls []domain.ToolCall, stepID string) bool {
	for _, c := range calls {
		if c.StepID == stepID {
			return true
		}
	}
	return false
}

// backfill searches earlier tool results, most recent first, for a
// top-level field matching the missing argument name.
func backfill(state *domain.State, field string) (any, bool) {
	for i := len(state.CompletedTools) - 1; i >= 0; i-- {
		res, ok := state.ToolResults[state.CompletedTools[i].ID]
		if !ok || !res.Success {
			continue
		}
		if data, ok := res.Data.(map[string]any); ok {
			if val, ok := data[field]; ok && val != nil {
				return val, true
			}
		}
	}
	return nil, false
}
