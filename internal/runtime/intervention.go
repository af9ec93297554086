package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaasjp/travel-bill-agent/internal/logging"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
)

// InterventionManager builds, classifies, and resolves human
// intervention requests.
type InterventionManager struct {
	knowledge ports.KnowledgeLog
	logger    *slog.Logger
}

// NewInterventionManager builds a manager. The knowledge log may be nil;
// recording and recommendation then degrade to no-ops.
func NewInterventionManager(knowledge ports.KnowledgeLog, logger *slog.Logger) *InterventionManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &InterventionManager{knowledge: knowledge, logger: logger}
}

// priorityFor maps an intervention type to its advisory priority.
func priorityFor(t domain.InterventionType) domain.InterventionPriority {
	switch t {
	case domain.InterventionExceptionHandling:
		return domain.PriorityUrgent
	case domain.InterventionInfoSupplement:
		return domain.PriorityNormal
	default:
		return domain.PriorityImportant
	}
}

func (m *InterventionManager) newRequest(t domain.InterventionType, source domain.StageID, reason string) *domain.InterventionRequest {
	return &domain.InterventionRequest{
		Type:          t,
		Priority:      priorityFor(t),
		Reason:        reason,
		RequestSource: source,
		CreatedAt:     time.Now().UTC(),
	}
}

// ParameterRequest asks for exactly the missing fields of a blocked step.
func (m *InterventionManager) ParameterRequest(ctx context.Context, source domain.StageID, gap *Gap) *domain.InterventionRequest {
	req := m.newRequest(domain.InterventionParameterProvider, source, gap.Reason)
	req.MissingFields = append([]string(nil), gap.MissingFields...)
	req.Context = map[string]any{
		"step_id": gap.StepID,
		"tool":    gap.Tool,
	}
	req.Options = []domain.InterventionOption{
		{Action: domain.ActionProvideParameters, Description: "supply the missing parameters", Parameters: gap.MissingFields},
		{Action: domain.ActionReplan, Description: "discard the plan and build a new one"},
		{Action: domain.ActionEnd, Description: "abandon the task"},
	}
	m.recommend(ctx, req)
	return req
}

// ConfirmationRequest asks for approval of an out-of-policy decision.
// approvalKey identifies the question so an approved answer is not
// re-asked within the same turn.
func (m *InterventionManager) ConfirmationRequest(ctx context.Context, source domain.StageID, reason, approvalKey string, extra map[string]any) *domain.InterventionRequest {
	req := m.newRequest(domain.InterventionDecisionConfirmation, source, reason)
	req.Context = map[string]any{"approval_key": approvalKey}
	for k, v := range extra {
		req.Context[k] = v
	}
	req.Options = []domain.InterventionOption{
		{Action: domain.ActionApprove, Description: "proceed despite the policy flag"},
		{Action: domain.ActionReject, Description: "stop the task"},
		{Action: domain.ActionModify, Description: "adjust the request and retry", Parameters: []string{"amount"}},
	}
	m.recommend(ctx, req)
	return req
}

// PermissionRequest asks for an explicit grant before a privileged tool
// runs. approvalKey dedupes the grant within the turn.
func (m *InterventionManager) PermissionRequest(ctx context.Context, source domain.StageID, tool, approvalKey string) *domain.InterventionRequest {
	req := m.newRequest(domain.InterventionPermissionGrant, source,
		fmt.Sprintf("tool %s needs an explicit permission grant", tool))
	req.Context = map[string]any{
		"tool":         tool,
		"approval_key": approvalKey,
	}
	req.Options = []domain.InterventionOption{
		{Action: domain.ActionGrant, Description: "allow the tool to run"},
		{Action: domain.ActionReplan, Description: "discard the plan and build a new one"},
		{Action: domain.ActionEnd, Description: "abandon the task"},
	}
	m.recommend(ctx, req)
	return req
}

// ExceptionRequest reports failures or detected loops that the engine
// cannot resolve on its own.
func (m *InterventionManager) ExceptionRequest(ctx context.Context, source domain.StageID, reason string, failedTools, errs []string) *domain.InterventionRequest {
	req := m.newRequest(domain.InterventionExceptionHandling, source, reason)
	req.Context = map[string]any{}
	if len(failedTools) > 0 {
		req.Context["failed_tools"] = failedTools
	}
	if len(errs) > 0 {
		req.Context["errors"] = errs
	}
	req.Options = []domain.InterventionOption{
		{Action: domain.ActionResolve, Description: "mark the problem as handled and continue"},
		{Action: domain.ActionSkipTool, Description: "skip the failing tool and continue"},
		{Action: domain.ActionReplan, Description: "discard the plan and build a new one"},
		{Action: domain.ActionEnd, Description: "abandon the task"},
	}
	m.recommend(ctx, req)
	return req
}

// InfoRequest asks for a free-form supplement to an unclear input.
func (m *InterventionManager) InfoRequest(ctx context.Context, source domain.StageID, reason string) *domain.InterventionRequest {
	req := m.newRequest(domain.InterventionInfoSupplement, source, reason)
	req.Options = []domain.InterventionOption{
		{Action: domain.ActionProvideInfo, Description: "supply the missing information"},
		{Action: domain.ActionEnd, Description: "abandon the task"},
	}
	m.recommend(ctx, req)
	return req
}

// EscalateForHistory upgrades the advisory priority when the thread has
// already needed intervention this turn or the turn has been running
// for a long time. Repeated suspensions mean the task is stuck, not
// routine.
func (m *InterventionManager) EscalateForHistory(req *domain.InterventionRequest, state *domain.State) {
	prior := 0
	for _, entry := range state.ExecutionLog {
		if entry.Action == "intervention_resolved" {
			prior++
		}
	}
	longRunning := !state.CreatedAt.IsZero() && time.Since(state.CreatedAt) > time.Hour

	if prior == 0 && !longRunning {
		return
	}
	if prior >= 2 {
		req.Priority = domain.PriorityUrgent
		return
	}
	switch req.Priority {
	case domain.PriorityNormal:
		req.Priority = domain.PriorityImportant
	case domain.PriorityImportant:
		req.Priority = domain.PriorityUrgent
	}
}

// recommend attaches the action that resolved the most similar past
// interventions. Best-effort: failures only log.
func (m *InterventionManager) recommend(ctx context.Context, req *domain.InterventionRequest) {
	if m.knowledge == nil {
		return
	}
	similar, err := m.knowledge.Similar(ctx, *req, 3)
	if err != nil {
		m.logger.Warn("intervention recommendation lookup failed", "err", err)
		return
	}
	counts := make(map[string]int)
	for _, rec := range similar {
		counts[rec.Action]++
	}
	best, bestN := "", 0
	for action, n := range counts {
		if n > bestN {
			best, bestN = action, n
		}
	}
	req.RecommendedAction = best
}

// Resolve records a resolved intervention in the knowledge log.
// Best-effort: it never blocks or fails the routing decision.
func (m *InterventionManager) Resolve(ctx context.Context, state *domain.State) {
	if m.knowledge == nil || state.InterventionRequest == nil || state.InterventionResponse == nil {
		return
	}
	req, resp := state.InterventionRequest, state.InterventionResponse

	rec := domain.InterventionRecord{
		ThreadID:   state.ThreadID,
		Type:       req.Type,
		Action:     resp.Action,
		Reason:     req.Reason,
		ResolvedAt: time.Now().UTC(),
	}
	if tool, ok := req.Context["tool"].(string); ok {
		rec.Tools = append(rec.Tools, tool)
	}
	if failed, ok := req.Context["failed_tools"].([]string); ok {
		rec.Tools = append(rec.Tools, failed...)
	}
	if errs, ok := req.Context["errors"].([]string); ok {
		rec.Errors = append(rec.Errors, errs...)
	}

	if err := m.knowledge.Record(ctx, rec); err != nil {
		m.logger.Warn("failed to record resolved intervention", "thread_id", state.ThreadID, "err", err)
	}
}
