package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// HumanInterventionStage bridges suspension and resumption. Without a
// response it builds (or keeps) the request and suspends; with one it
// applies the chosen action and lets the router dispatch on it.
type HumanInterventionStage struct {
	deps    *Deps
	manager *InterventionManager
}

func NewHumanInterventionStage(deps *Deps, manager *InterventionManager) *HumanInterventionStage {
	return &HumanInterventionStage{deps: deps, manager: manager}
}

func (s *HumanInterventionStage) ID() domain.StageID { return domain.StageHumanIntervention }

func (s *HumanInterventionStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()

	if next.InterventionResponse == nil {
		return s.suspend(ctx, next), nil
	}
	return s.resolve(ctx, next), nil
}

// suspend ensures a structured request exists and yields to the caller.
func (s *HumanInterventionStage) suspend(ctx context.Context, next *domain.State) *domain.State {
	if next.InterventionRequest == nil {
		// Routed here by an escalation or a stage failure; derive the
		// request from the recorded errors.
		if len(next.Errors) > 0 {
			last := next.Errors[len(next.Errors)-1]
			var errs []string
			for _, e := range next.Errors {
				errs = append(errs, e.Message)
			}
			next.InterventionRequest = s.manager.ExceptionRequest(ctx, last.Stage, last.Message, nil, errs)
		} else {
			next.InterventionRequest = s.manager.InfoRequest(ctx, domain.StageHumanIntervention,
				"the assistant needs more information to proceed")
		}
		s.manager.EscalateForHistory(next.InterventionRequest, next)
	}
	next.Status = domain.StatusWaitingForHuman
	next.AppendLog(domain.StageHumanIntervention, "intervention_requested", map[string]any{
		"type":     string(next.InterventionRequest.Type),
		"priority": string(next.InterventionRequest.Priority),
	})
	return next
}

// resolve applies the human's action. The response stays on the state
// for the router to dispatch on; the consuming stage clears it.
func (s *HumanInterventionStage) resolve(ctx context.Context, next *domain.State) *domain.State {
	resp := next.InterventionResponse
	req := next.InterventionRequest

	// Durable trace first; best-effort by contract.
	s.manager.Resolve(ctx, next)
	next.InterventionRequest = nil

	switch resp.Action {
	case domain.ActionApprove, domain.ActionGrant:
		if req != nil {
			if key, ok := req.Context["approval_key"].(string); ok && key != "" {
				next.Approvals = append(next.Approvals, key)
			}
		}
		next.Status = domain.StatusRunning

	case domain.ActionProvideParameters:
		s.mergeParameters(next, req, resp.Parameters)
		next.Status = domain.StatusRunning

	case domain.ActionProvideInfo:
		if resp.Note != "" {
			next.Messages = append(next.Messages, domain.Message{Role: "user", Content: resp.Note, At: time.Now().UTC()})
		}
		next.Status = domain.StatusRunning

	case domain.ActionModify:
		applyModifications(next, resp.Modifications)
		next.Status = domain.StatusRunning

	case domain.ActionResolve, domain.ActionSkipTool, domain.ActionContinue:
		// The failure is acknowledged; clear the failed marker so
		// Reflection judges the remaining work instead of re-escalating.
		next.Status = domain.StatusRunning

	case domain.ActionReplan:
		next.Status = domain.StatusRunning

	case domain.ActionEscalate:
		if req != nil {
			req.Priority = domain.PriorityUrgent
			next.InterventionRequest = req
		}
		next.InterventionResponse = nil
		return s.suspend(ctx, next)

	default:
		// reject, end, and anything unrecognized terminate the turn.
		next.Status = domain.StatusCompleted
		if next.FinalOutput == "" {
			next.FinalOutput = "Task ended at your request."
		}
	}

	next.AppendLog(domain.StageHumanIntervention, "intervention_resolved", map[string]any{"action": resp.Action})
	return next
}

// mergeParameters fills provided values into the blocked plan step, or
// into every step missing them when the step cannot be identified.
func (s *HumanInterventionStage) mergeParameters(next *domain.State, req *domain.InterventionRequest, params map[string]any) {
	if len(params) == 0 {
		return
	}
	var stepID string
	if req != nil {
		stepID, _ = req.Context["step_id"].(string)
	}
	for i := range next.Plan {
		if stepID != "" && next.Plan[i].ID != stepID {
			continue
		}
		// Clone copies the plan slice one level deep, so the arguments map
		// is still shared with earlier snapshots. Write into a fresh map.
		merged := make(map[string]any, len(next.Plan[i].Tool.Arguments)+len(params))
		for k, v := range next.Plan[i].Tool.Arguments {
			merged[k] = v
		}
		for k, v := range params {
			if _, exists := merged[k]; !exists || stepID != "" {
				merged[k] = v
			}
		}
		next.Plan[i].Tool.Arguments = merged
	}
}

// applyModifications applies recognized state edits from a modify
// response: amount and other intent slots, or a replacement user input.
func applyModifications(next *domain.State, mods map[string]any) {
	for key, val := range mods {
		switch key {
		case "user_input":
			if s, ok := val.(string); ok {
				next.UserInput = s
			}
		default:
			if next.Intent == nil {
				next.Intent = &domain.Intent{Primary: "submit_expense", Slots: map[string]any{}}
			}
			if next.Intent.Slots == nil {
				next.Intent.Slots = map[string]any{}
			}
			next.Intent.Slots[strings.ToLower(key)] = val
		}
	}
}
