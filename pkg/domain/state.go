package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// State is the single record threaded through every stage of a turn.
// Stages never mutate their input: each stage derives a new State via Clone,
// so a persisted snapshot is always internally consistent.
type State struct {
	// ThreadID is the conversation identifier and the checkpoint key.
	ThreadID string `json:"thread_id"`

	// Status drives routing. See the Status constants.
	Status Status `json:"status"`

	// CurrentStage is the stage that produced this snapshot. It is audit
	// metadata; resumption always re-enters at HumanIntervention.
	CurrentStage StageID `json:"current_stage"`

	// UserInput is the latest raw external input. Overwritten on each new
	// turn and on intervention resumption.
	UserInput string `json:"user_input"`

	// Messages is the running conversation history across turns.
	Messages []Message `json:"messages,omitempty"`

	// Intent is owned by Analysis; read by Planning and Decision.
	Intent *Intent `json:"intent,omitempty"`

	// Plan is owned by Planning and mutated by Decision during parameter
	// resolution. Invalidated and rebuilt on re-plan.
	Plan []PlanStep `json:"plan,omitempty"`

	// Tool pipeline. A descriptor moves pending -> validated -> completed in
	// strict left-to-right order and is never re-inserted upstream except
	// via an explicit re-plan.
	PendingTools   []ToolCall `json:"pending_tools,omitempty"`
	ValidatedTools []ToolCall `json:"validated_tools,omitempty"`
	CompletedTools []ToolCall `json:"completed_tools,omitempty"`

	// ToolResults maps call ID to outcome. Append-only within a turn,
	// cleared on re-plan.
	ToolResults map[string]ToolResult `json:"tool_results,omitempty"`

	// Approvals holds step IDs whose decision_confirmation was approved,
	// so a resumed turn does not re-ask the same question.
	Approvals []string `json:"approvals,omitempty"`

	// InterventionRequest is the outstanding ask-for-human-input payload;
	// InterventionResponse its eventual external answer. The request is
	// cleared once a matching response is consumed.
	InterventionRequest  *InterventionRequest  `json:"intervention_request,omitempty"`
	InterventionResponse *InterventionResponse `json:"intervention_response,omitempty"`

	// Reflection is the outcome of the most recent Reflection stage.
	Reflection *Reflection `json:"reflection,omitempty"`

	// ExecutionLog is the append-only journal of stage transitions, used
	// for audit and loop detection. Entries are immutable once written.
	ExecutionLog []LogEntry `json:"execution_log,omitempty"`

	// Errors records recoverable stage and tool failures.
	Errors []StateError `json:"errors,omitempty"`

	// FinalOutput is the user-facing result of a completed turn.
	FinalOutput string `json:"final_output,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one entry of the conversation history.
type Message struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// StateError is a recorded, non-fatal failure.
type StateError struct {
	Stage     StageID   `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// LogEntry is one immutable line of the execution journal.
type LogEntry struct {
	ID        string         `json:"id"`
	Stage     StageID        `json:"stage"`
	Action    string         `json:"action"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewState creates the initial snapshot for a fresh thread.
func NewState(threadID, userInput string) *State {
	now := time.Now().UTC()
	return &State{
		ThreadID:     threadID,
		Status:       StatusRunning,
		CurrentStage: StageAnalysis,
		UserInput:    userInput,
		ToolResults:  make(map[string]ToolResult),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy safe for independent mutation. Slices and maps
// are copied one level deep; element payloads (argument maps, details) are
// treated as immutable once recorded.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s

	next.Messages = append([]Message(nil), s.Messages...)
	next.Plan = append([]PlanStep(nil), s.Plan...)
	next.PendingTools = append([]ToolCall(nil), s.PendingTools...)
	next.ValidatedTools = append([]ToolCall(nil), s.ValidatedTools...)
	next.CompletedTools = append([]ToolCall(nil), s.CompletedTools...)
	next.Approvals = append([]string(nil), s.Approvals...)
	next.ExecutionLog = append([]LogEntry(nil), s.ExecutionLog...)
	next.Errors = append([]StateError(nil), s.Errors...)

	next.ToolResults = make(map[string]ToolResult, len(s.ToolResults))
	for k, v := range s.ToolResults {
		next.ToolResults[k] = v
	}

	if s.Intent != nil {
		intent := *s.Intent
		intent.Slots = copyMap(s.Intent.Slots)
		next.Intent = &intent
	}
	if s.InterventionRequest != nil {
		req := *s.InterventionRequest
		req.MissingFields = append([]string(nil), s.InterventionRequest.MissingFields...)
		req.Options = append([]InterventionOption(nil), s.InterventionRequest.Options...)
		next.InterventionRequest = &req
	}
	if s.InterventionResponse != nil {
		resp := *s.InterventionResponse
		resp.Parameters = copyMap(s.InterventionResponse.Parameters)
		next.InterventionResponse = &resp
	}
	if s.Reflection != nil {
		refl := *s.Reflection
		refl.SuccessAspects = append([]string(nil), s.Reflection.SuccessAspects...)
		refl.MissingAspects = append([]string(nil), s.Reflection.MissingAspects...)
		next.Reflection = &refl
	}
	return &next
}

// AppendLog adds a journal entry. Existing entries are never rewritten.
func (s *State) AppendLog(stage StageID, action string, details map[string]any) {
	s.ExecutionLog = append(s.ExecutionLog, LogEntry{
		ID:        NewID(),
		Stage:     stage,
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

// AppendToolLog adds a journal entry for a tool invocation. The loop
// detector keys on (stage, tool, arguments) triples from these entries.
func (s *State) AppendToolLog(stage StageID, action, tool string, args map[string]any) {
	s.ExecutionLog = append(s.ExecutionLog, LogEntry{
		ID:        NewID(),
		Stage:     stage,
		Action:    action,
		Tool:      tool,
		Arguments: args,
		Timestamp: time.Now().UTC(),
	})
}

// RecordError appends a recoverable failure.
func (s *State) RecordError(stage StageID, msg string) {
	s.Errors = append(s.Errors, StateError{
		Stage:     stage,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}

// Touch refreshes the modification timestamp.
func (s *State) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Approved reports whether the given step ID holds a recorded approval.
func (s *State) Approved(stepID string) bool {
	for _, id := range s.Approvals {
		if id == stepID {
			return true
		}
	}
	return false
}

// NewID returns a lexicographically sortable unique identifier for log
// entries and tool-call descriptors.
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
