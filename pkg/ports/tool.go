package ports

import (
	"context"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// Tool is one invocable capability exposed to the planner.
//
// Implementations must be safe for concurrent use; the execution stage
// invokes calls strictly sequentially within a thread, but multiple
// threads may run at once.
type Tool interface {
	// Name returns the unique registry key.
	Name() string

	// Description returns a one-line summary surfaced to the planner.
	Description() string

	// Parameters returns the argument specification used for validation
	// and for advertising the tool over MCP.
	Parameters() *schema.Parameters

	// NonSkippable reports whether a failure of this tool halts the
	// pipeline instead of continuing with the next call.
	NonSkippable() bool

	// Invoke runs the tool with validated arguments.
	Invoke(ctx context.Context, args map[string]any) (any, error)
}
