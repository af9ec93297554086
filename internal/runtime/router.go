package runtime

import (
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// Next maps (current stage, resulting state) to the next stage. It is
// pure and total: every reachable combination yields a defined arc, and
// an unset or unrecognized status fails closed to HumanIntervention with
// a RoutingError for the caller to log.
func Next(current domain.StageID, state *domain.State) (domain.StageID, error) {
	if state.Status == "" {
		return domain.StageHumanIntervention, &domain.RoutingError{Stage: current}
	}

	switch current {
	case domain.StageAnalysis:
		return domain.StagePlanning, nil

	case domain.StagePlanning:
		if state.Status == domain.StatusConversationReady {
			return domain.StageConversation, nil
		}
		return domain.StageDecision, nil

	case domain.StageDecision:
		switch {
		case state.Status == domain.StatusWaitingForHuman:
			return domain.StageHumanIntervention, nil
		case state.Status == domain.StatusReadyForExecution && len(state.PendingTools) > 0:
			return domain.StageToolExecution, nil
		default:
			return domain.StageReflection, nil
		}

	case domain.StageToolExecution:
		return domain.StageReflection, nil

	case domain.StageReflection:
		if state.Reflection != nil {
			switch {
			case state.Reflection.DetectedRepetition,
				state.Reflection.Action == domain.ReflectionEscalate:
				return domain.StageHumanIntervention, nil
			case state.Reflection.Action == domain.ReflectionReplan:
				return domain.StagePlanning, nil
			case state.Reflection.Action == domain.ReflectionContinue:
				return domain.StageDecision, nil
			}
		}
		return domain.StageTerminal, nil

	case domain.StageConversation:
		if state.Status == domain.StatusConversationError {
			return domain.StageHumanIntervention, nil
		}
		return domain.StageTerminal, nil

	case domain.StageHumanIntervention:
		if state.Status == domain.StatusWaitingForHuman {
			return domain.StageHumanIntervention, nil
		}
		if resp := state.InterventionResponse; resp != nil {
			switch resp.Action {
			case domain.ActionReplan:
				return domain.StagePlanning, nil
			case domain.ActionContinue, domain.ActionModify,
				domain.ActionApprove, domain.ActionGrant,
				domain.ActionProvideInfo, domain.ActionProvideParameters,
				domain.ActionResolve, domain.ActionSkipTool:
				// Continue-class actions resolve the blocking question and
				// hand control back to Decision.
				return domain.StageDecision, nil
			}
		}
		return domain.StageTerminal, nil

	default:
		return domain.StageHumanIntervention, &domain.RoutingError{Stage: current, Status: state.Status}
	}
}
