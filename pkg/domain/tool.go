package domain

// ToolCall is a fully or partially specified tool invocation descriptor
// moving through the pending -> validated -> completed pipeline.
type ToolCall struct {
	// ID uniquely identifies this call; ToolResults is keyed by it.
	ID string `json:"id"`

	// StepID references the plan step that produced this call.
	StepID string `json:"step_id,omitempty"`

	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// NonSkippable halts the pipeline when this call fails instead of
	// proceeding to the next descriptor.
	NonSkippable bool `json:"non_skippable,omitempty"`
}

// ToolResult is the recorded outcome of one tool invocation.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// KnowledgeHit is one retrieval result from the RAG collaborator.
type KnowledgeHit struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	DocType string  `json:"doc_type"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}
