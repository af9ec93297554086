package domain

// StageID names a unit of the workflow. The Router maps (stage, status)
// pairs onto the next StageID; StageTerminal ends the turn.
type StageID string

const (
	StageAnalysis          StageID = "analysis"
	StagePlanning          StageID = "planning"
	StageDecision          StageID = "decision"
	StageToolExecution     StageID = "tool_execution"
	StageReflection        StageID = "reflection"
	StageConversation      StageID = "conversation"
	StageHumanIntervention StageID = "human_intervention"
	StageTerminal          StageID = "terminal"
)

// Status is the declarative routing signal. Every stage must set a Status
// before returning; the Router treats an empty Status as a defect and fails
// closed to HumanIntervention.
type Status string

const (
	// StatusRunning is the neutral in-flight status. Stages with no special
	// routing requirement emit it and rely on default arcs.
	StatusRunning Status = "running"

	// StatusConversationReady is emitted by Planning when the input is
	// small talk rather than an actionable task.
	StatusConversationReady Status = "conversation_ready"

	// StatusDecisionReady is emitted by Planning when a plan was built and
	// the Decision stage should resolve tool calls.
	StatusDecisionReady Status = "decision_ready"

	// StatusReadyForExecution means every pending tool call passed
	// parameter validation and the pipeline may run.
	StatusReadyForExecution Status = "ready_for_execution"

	// StatusWaitingForHuman is the single suspension signal. The engine
	// treats it as a hard stop regardless of which stage produced it.
	StatusWaitingForHuman Status = "waiting_for_human"

	// StatusExecutionFailed is set when a non-skippable tool failed and the
	// pipeline halted early. Reflection inspects the failure.
	StatusExecutionFailed Status = "execution_failed"

	StatusConversationCompleted Status = "conversation_completed"
	StatusConversationError     Status = "conversation_error"

	// StatusCompleted marks a terminal snapshot.
	StatusCompleted Status = "completed"
)
