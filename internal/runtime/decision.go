package runtime

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// approvalKeyAmount marks the over-threshold amount confirmation, so an
// approved answer is not asked twice within one turn.
const approvalKeyAmount = "policy_amount"

// DecisionStage gates the plan: policy compliance first, then parameter
// validation, then dispatch to execution.
type DecisionStage struct {
	deps      *Deps
	validator *Validator
	manager   *InterventionManager
}

func NewDecisionStage(deps *Deps, validator *Validator, manager *InterventionManager) *DecisionStage {
	return &DecisionStage{deps: deps, validator: validator, manager: manager}
}

func (s *DecisionStage) ID() domain.StageID { return domain.StageDecision }

func (s *DecisionStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()
	next.InterventionResponse = nil

	// Policy gate: amounts above the approval threshold need an explicit
	// human confirmation once per turn.
	if amount, ok := claimedAmount(next.Intent); ok {
		if ok, reason := s.deps.Policy.Check(amount); !ok && !next.Approved(approvalKeyAmount) {
			req := s.manager.ConfirmationRequest(ctx, domain.StageDecision, reason, approvalKeyAmount, map[string]any{
				"amount":    amount,
				"threshold": s.deps.Policy.ApprovalThreshold,
			})
			s.manager.EscalateForHistory(req, next)
			next.InterventionRequest = req
			next.Status = domain.StatusWaitingForHuman
			next.AppendLog(domain.StageDecision, "confirmation_requested", map[string]any{"reason": reason})
			return next, nil
		}
	}

	if gap := s.validator.Validate(next); gap != nil {
		if len(gap.MissingFields) > 0 {
			// Steps before the gap may produce the missing values. Run
			// them first; the gap is re-checked with backfill on the
			// next pass and only then asked of a human.
			if len(next.PendingTools) > 0 {
				if s.suspendForPermission(ctx, next) {
					return next, nil
				}
				next.Status = domain.StatusReadyForExecution
				next.AppendLog(domain.StageDecision, "execution_approved", map[string]any{
					"tools":        len(next.PendingTools),
					"deferred_gap": gap.StepID,
				})
				return next, nil
			}
			req := s.manager.ParameterRequest(ctx, domain.StageDecision, gap)
			s.manager.EscalateForHistory(req, next)
			next.InterventionRequest = req
			next.Status = domain.StatusWaitingForHuman
			next.AppendLog(domain.StageDecision, "parameters_requested", map[string]any{
				"tool":    gap.Tool,
				"missing": gap.MissingFields,
			})
			return next, nil
		}
		// Unknown tool or malformed arguments: not recoverable by asking
		// for values, surface as an exception.
		req := s.manager.ExceptionRequest(ctx, domain.StageDecision, gap.Reason, []string{gap.Tool}, nil)
		s.manager.EscalateForHistory(req, next)
		next.InterventionRequest = req
		next.Status = domain.StatusWaitingForHuman
		next.RecordError(domain.StageDecision, gap.Reason)
		next.AppendLog(domain.StageDecision, "validation_failed", map[string]any{"tool": gap.Tool})
		return next, nil
	}

	if len(next.PendingTools) > 0 {
		if s.suspendForPermission(ctx, next) {
			return next, nil
		}
		next.Status = domain.StatusReadyForExecution
		next.AppendLog(domain.StageDecision, "execution_approved", map[string]any{"tools": len(next.PendingTools)})
		return next, nil
	}

	next.Status = domain.StatusRunning
	next.AppendLog(domain.StageDecision, "nothing_to_execute", nil)
	return next, nil
}

// suspendForPermission suspends when a pending call names a privileged
// tool whose grant has not been given this turn.
func (s *DecisionStage) suspendForPermission(ctx context.Context, next *domain.State) bool {
	for _, call := range next.PendingTools {
		if !s.deps.Policy.Privileged(call.Name) {
			continue
		}
		key := "permission_" + call.Name
		if next.Approved(key) {
			continue
		}
		req := s.manager.PermissionRequest(ctx, domain.StageDecision, call.Name, key)
		s.manager.EscalateForHistory(req, next)
		next.InterventionRequest = req
		next.Status = domain.StatusWaitingForHuman
		next.AppendLog(domain.StageDecision, "permission_requested", map[string]any{"tool": call.Name})
		return true
	}
	return false
}

// claimedAmount digs the claimed amount out of the intent slots,
// tolerating the string/number drift of model output.
func claimedAmount(intent *domain.Intent) (float64, bool) {
	if intent == nil {
		return 0, false
	}
	switch v := intent.Slots["amount"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	case fmt.Stringer:
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
