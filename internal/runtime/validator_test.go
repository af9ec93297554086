package runtime

import (
	"reflect"
	"testing"

	"github.com/aaasjp/travel-bill-agent/internal/tools"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/registry"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	reg := registry.New()
	tools.RegisterAll(reg, tools.NewLedger(), tools.DefaultPolicy())
	return NewValidator(reg)
}

func TestValidatorAssemblesPending(t *testing.T) {
	v := newTestValidator(t)
	state := domain.NewState("t-1", "")
	state.Plan = []domain.PlanStep{
		{ID: "step_1", Tool: domain.ToolSelection{Name: "process_invoices", Arguments: map[string]any{
			"invoice_number": "INV-1", "amount": 650.0,
		}}},
	}

	if gap := v.Validate(state); gap != nil {
		t.Fatalf("unexpected gap: %+v", gap)
	}
	if len(state.PendingTools) != 1 || len(state.ValidatedTools) != 1 {
		t.Fatalf("pipeline = %d pending / %d validated", len(state.PendingTools), len(state.ValidatedTools))
	}
	if state.PendingTools[0].Name != "process_invoices" || state.PendingTools[0].StepID != "step_1" {
		t.Fatalf("descriptor = %+v", state.PendingTools[0])
	}
}

func TestValidatorBackfillsFromToolResults(t *testing.T) {
	v := newTestValidator(t)
	state := domain.NewState("t-1", "")

	// An earlier completed call produced the invoice number.
	earlier := domain.ToolCall{ID: "call-1", StepID: "step_1", Name: "process_invoices"}
	state.CompletedTools = []domain.ToolCall{earlier}
	state.ValidatedTools = []domain.ToolCall{earlier}
	state.ToolResults["call-1"] = domain.ToolResult{
		CallID:  "call-1",
		Name:    "process_invoices",
		Success: true,
		Data:    map[string]any{"invoice_number": "INV-20240311-001", "verified": true},
	}

	state.Plan = []domain.PlanStep{
		{ID: "step_1", Tool: domain.ToolSelection{Name: "process_invoices"}},
		{ID: "step_2", Tool: domain.ToolSelection{Name: "submit_reimbursement", Arguments: map[string]any{
			"applicant": "zhang wei", "amount": 650.0,
		}}},
	}

	if gap := v.Validate(state); gap != nil {
		t.Fatalf("backfill should have resolved the gap, got %+v", gap)
	}
	if len(state.PendingTools) != 1 {
		t.Fatalf("pending = %d, want 1", len(state.PendingTools))
	}
	if got := state.PendingTools[0].Arguments["invoice_number"]; got != "INV-20240311-001" {
		t.Fatalf("invoice_number = %v", got)
	}
}

func TestValidatorReportsExactMissingFields(t *testing.T) {
	v := newTestValidator(t)
	state := domain.NewState("t-1", "")
	state.Plan = []domain.PlanStep{
		{ID: "step_1", Tool: domain.ToolSelection{Name: "submit_reimbursement", Arguments: map[string]any{
			"amount": 650.0,
		}}},
	}

	gap := v.Validate(state)
	if gap == nil {
		t.Fatal("expected a gap")
	}
	want := []string{"applicant", "invoice_number"}
	if !reflect.DeepEqual(gap.MissingFields, want) {
		t.Fatalf("missing = %v, want %v", gap.MissingFields, want)
	}
	if len(state.PendingTools) != 0 {
		t.Fatalf("gapped step must not enter the pipeline: %v", state.PendingTools)
	}
}

func TestValidatorStopsAtFirstGap(t *testing.T) {
	v := newTestValidator(t)
	state := domain.NewState("t-1", "")
	state.Plan = []domain.PlanStep{
		{ID: "step_1", Tool: domain.ToolSelection{Name: "submit_reimbursement"}}, // gapped
		{ID: "step_2", Tool: domain.ToolSelection{Name: "query_budget", Arguments: map[string]any{
			"department": "engineering",
		}}},
	}

	gap := v.Validate(state)
	if gap == nil || gap.StepID != "step_1" {
		t.Fatalf("gap = %+v", gap)
	}
	// step_2 may depend on step_1's output; assembly must stop.
	if len(state.PendingTools) != 0 {
		t.Fatalf("assembly continued past the gap: %v", state.PendingTools)
	}
}

func TestValidatorIdempotent(t *testing.T) {
	v := newTestValidator(t)
	state := domain.NewState("t-1", "")
	state.Plan = []domain.PlanStep{
		{ID: "step_1", Tool: domain.ToolSelection{Name: "query_budget", Arguments: map[string]any{
			"department": "engineering",
		}}},
	}

	if gap := v.Validate(state); gap != nil {
		t.Fatal(gap.Reason)
	}
	before := state.Clone()

	if gap := v.Validate(state); gap != nil {
		t.Fatal(gap.Reason)
	}
	if !reflect.DeepEqual(before.PendingTools, state.PendingTools) ||
		!reflect.DeepEqual(before.ValidatedTools, state.ValidatedTools) {
		t.Fatal("re-validation changed the pipeline")
	}

	// A completed descriptor is equally untouchable.
	state.CompletedTools = append(state.CompletedTools, state.PendingTools[0])
	state.PendingTools = nil
	completedBefore := state.Clone()
	if gap := v.Validate(state); gap != nil {
		t.Fatal(gap.Reason)
	}
	if !reflect.DeepEqual(completedBefore.CompletedTools, state.CompletedTools) || len(state.PendingTools) != 0 {
		t.Fatal("validating a completed descriptor changed state")
	}
}

func TestValidatorUnknownTool(t *testing.T) {
	v := newTestValidator(t)
	state := domain.NewState("t-1", "")
	state.Plan = []domain.PlanStep{
		{ID: "step_1", Tool: domain.ToolSelection{Name: "teleport_money"}},
	}

	gap := v.Validate(state)
	if gap == nil || len(gap.MissingFields) != 0 {
		t.Fatalf("unknown tool should gap without missing fields: %+v", gap)
	}
}
