package domain

import "time"

// InterventionType classifies why human input is needed.
type InterventionType string

const (
	InterventionInfoSupplement       InterventionType = "info_supplement"
	InterventionDecisionConfirmation InterventionType = "decision_confirmation"
	InterventionExceptionHandling    InterventionType = "exception_handling"
	InterventionPermissionGrant      InterventionType = "permission_grant"
	InterventionParameterProvider    InterventionType = "parameter_provider"
)

// InterventionPriority carries an advisory soft timeout. The engine never
// enforces wall-clock expiry; that belongs to an external supervisor.
type InterventionPriority string

const (
	PriorityUrgent    InterventionPriority = "urgent"
	PriorityImportant InterventionPriority = "important"
	PriorityNormal    InterventionPriority = "normal"
)

// SoftTimeout returns the advisory response window for the priority.
func (p InterventionPriority) SoftTimeout() time.Duration {
	switch p {
	case PriorityUrgent:
		return 5 * time.Minute
	case PriorityImportant:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// Channels returns the advisory notification channels for the priority.
func (p InterventionPriority) Channels() []string {
	switch p {
	case PriorityUrgent:
		return []string{"email", "sms", "im"}
	case PriorityImportant:
		return []string{"email", "im"}
	default:
		return []string{"email"}
	}
}

// InterventionOption describes one action the human may take.
type InterventionOption struct {
	Action      string   `json:"action"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters,omitempty"`
}

// InterventionRequest is the structured suspension payload.
type InterventionRequest struct {
	Type     InterventionType     `json:"type"`
	Priority InterventionPriority `json:"priority"`
	Reason   string               `json:"reason"`

	// Context carries stage-specific detail: the blocked step, the amount
	// under confirmation, the failing tool.
	Context map[string]any `json:"context,omitempty"`

	// RequestSource names the stage that raised the request.
	RequestSource StageID `json:"request_source"`

	// MissingFields lists exactly the unresolved parameters for
	// parameter_provider requests.
	MissingFields []string `json:"missing_fields,omitempty"`

	Options []InterventionOption `json:"options,omitempty"`

	// RecommendedAction is a best-effort suggestion derived from similar
	// resolved interventions in the knowledge log.
	RecommendedAction string `json:"recommended_action,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Response action vocabulary. Continue-class actions resolve the blocking
// question and hand control back to Decision.
const (
	ActionApprove           = "approve"
	ActionReject            = "reject"
	ActionModify            = "modify"
	ActionProvideInfo       = "provide_info"
	ActionProvideParameters = "provide_parameters"
	ActionResolve           = "resolve"
	ActionEscalate          = "escalate"
	ActionGrant             = "grant"
	ActionContinue          = "continue"
	ActionReplan            = "replan"
	ActionEnd               = "end"
	ActionSkipTool          = "skip_tool"
)

// InterventionResponse is the external answer to a suspension.
type InterventionResponse struct {
	Action string `json:"action"`

	// Parameters carries provided values for provide_parameters responses.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Modifications carries state edits for modify responses.
	Modifications map[string]any `json:"modifications,omitempty"`

	Note string `json:"note,omitempty"`
}

// InterventionRecordKind classifies a resolved intervention for the
// knowledge log.
type InterventionRecordKind string

const (
	RecordFact       InterventionRecordKind = "fact"
	RecordExperience InterventionRecordKind = "experience"
	RecordTask       InterventionRecordKind = "task"
)

// InterventionRecord is the durable trace of a resolved intervention.
type InterventionRecord struct {
	ThreadID   string                 `json:"thread_id"`
	Kind       InterventionRecordKind `json:"kind"`
	Type       InterventionType       `json:"type"`
	Action     string                 `json:"action"`
	Reason     string                 `json:"reason"`
	Tools      []string               `json:"tools,omitempty"`
	Errors     []string               `json:"errors,omitempty"`
	ResolvedAt time.Time              `json:"resolved_at"`
}
