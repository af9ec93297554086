package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrThreadNotFound is returned by checkpoint stores when no snapshot
// exists for the requested thread ID.
var ErrThreadNotFound = errors.New("thread not found")

// ErrToolNotFound is returned by the registry for unknown tool names.
var ErrToolNotFound = errors.New("tool not found")

// StaleResumptionError reports a resumption attempt against a thread that
// is not suspended. The stored state is left untouched.
type StaleResumptionError struct {
	ThreadID string
	Status   Status
}

func (e *StaleResumptionError) Error() string {
	return fmt.Sprintf("thread %s is not awaiting human input (status %q)", e.ThreadID, e.Status)
}

// RoutingError reports a stage that returned without a recognized status.
// The Router fails closed to HumanIntervention when it occurs.
type RoutingError struct {
	Stage  StageID
	Status Status
}

func (e *RoutingError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("stage %s left status unset", e.Stage)
	}
	return fmt.Sprintf("stage %s emitted unrecognized status %q", e.Stage, e.Status)
}

// ValidationError reports missing or malformed tool arguments. It is
// recovered locally via backfill or escalated to intervention, never fatal.
type ValidationError struct {
	Tool          string
	MissingFields []string
	Reason        string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("tool %s: missing required parameters: %s", e.Tool, strings.Join(e.MissingFields, ", "))
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Reason)
}

// ToolExecutionError reports a single failed tool call. It is recorded in
// ToolResults and surfaced to Reflection, not fatal to the turn.
type ToolExecutionError struct {
	CallID string
	Tool   string
	Cause  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s (call %s) failed: %v", e.Tool, e.CallID, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// LoopDetectedError reports the repeated-action guard firing. It forces a
// route to HumanIntervention instead of a silent retry.
type LoopDetectedError struct {
	Tool  string
	Count int
}

func (e *LoopDetectedError) Error() string {
	return fmt.Sprintf("tool %s invoked %d times with identical arguments", e.Tool, e.Count)
}
