package domain

// Intent is the structured result of the Analysis stage.
type Intent struct {
	// Primary is the recognized top-level intent, e.g. "submit_expense".
	Primary string `json:"primary"`

	// Slots holds extracted values keyed by slot name (amount, category,
	// dates, invoice references).
	Slots map[string]any `json:"slots,omitempty"`

	// PolicyCitation names the policy clause the intent was matched
	// against, when retrieval produced one.
	PolicyCitation string `json:"policy_citation,omitempty"`

	// Compliant is the analysis-time compliance estimate. The Decision
	// stage re-checks amounts against the policy thresholds regardless.
	Compliant bool `json:"compliant"`

	// Conversational marks inputs with no actionable task.
	Conversational bool `json:"conversational,omitempty"`
}

// PlanStep is one ordered step of the execution plan.
type PlanStep struct {
	ID     string        `json:"step_id"`
	Name   string        `json:"step_name"`
	Action string        `json:"action"`
	Tool   ToolSelection `json:"tool"`
}

// ToolSelection is the planner's candidate tool with draft arguments.
type ToolSelection struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ReflectionAction decides what happens after a Reflection stage.
type ReflectionAction string

const (
	ReflectionContinue ReflectionAction = "continue"
	ReflectionReplan   ReflectionAction = "replan"
	ReflectionEscalate ReflectionAction = "escalate"
	ReflectionEnd      ReflectionAction = "end"
)

// Reflection is the outcome of evaluating a turn's progress.
type Reflection struct {
	Action             ReflectionAction `json:"action"`
	CompletionRate     float64          `json:"completion_rate"`
	SuccessAspects     []string         `json:"success_aspects,omitempty"`
	MissingAspects     []string         `json:"missing_aspects,omitempty"`
	DetectedRepetition bool             `json:"detected_repetition"`
	Rationale          string           `json:"rationale,omitempty"`
	FinalOutput        string           `json:"final_output,omitempty"`
}
