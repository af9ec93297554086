package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aaasjp/travel-bill-agent/pkg/registry"
)

func TestRegisterAll(t *testing.T) {
	reg := registry.New()
	RegisterAll(reg, NewLedger(), DefaultPolicy())

	names := reg.Group(registry.GroupBusinessTrip)
	if len(names) != 7 {
		t.Fatalf("registered %d tools, want 7: %v", len(names), names)
	}
	for _, name := range []string{"process_invoices", "manage_expense_records", "submit_reimbursement", "query_reimbursement_status", "query_travel_application", "process_allowance", "query_budget"} {
		if _, err := reg.Get(name); err != nil {
			t.Errorf("tool %s not registered: %v", name, err)
		}
	}
}

func TestInvoiceTool(t *testing.T) {
	tool := NewInvoiceTool(NewLedger())
	ctx := context.Background()

	out, err := tool.Invoke(ctx, map[string]any{"invoice_number": "INV-20240311-001", "amount": 650.0})
	if err != nil {
		t.Fatal(err)
	}
	data := out.(map[string]any)
	if data["verified"] != true {
		t.Fatalf("invoice not verified: %v", data)
	}

	if _, err := tool.Invoke(ctx, map[string]any{"invoice_number": "BAD-1", "amount": 650.0}); err == nil {
		t.Fatal("expected verification failure for bad number format")
	}
}

func TestExpenseRecordLifecycle(t *testing.T) {
	ledger := NewLedger()
	tool := NewExpenseRecordTool(ledger)
	ctx := context.Background()

	out, err := tool.Invoke(ctx, map[string]any{
		"action":      "create",
		"travel_date": "2024-03-11",
		"destination": "Shanghai",
		"purpose":     "client visit",
		"category":    "flight",
		"amount":      6500.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := out.(ExpenseRecord)
	if rec.ID == "" {
		t.Fatal("record id not assigned")
	}

	got, err := tool.Invoke(ctx, map[string]any{"action": "get", "record_id": rec.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got.(ExpenseRecord).Amount != 6500.0 {
		t.Fatalf("amount = %v", got.(ExpenseRecord).Amount)
	}

	if _, err := tool.Invoke(ctx, map[string]any{"action": "get"}); err == nil {
		t.Fatal("get without record_id should fail")
	}
}

func TestSubmitAndQueryReimbursement(t *testing.T) {
	ledger := NewLedger()
	policy := DefaultPolicy()
	submit := NewSubmitReimbursementTool(ledger, policy)
	query := NewReimbursementStatusTool(ledger)
	ctx := context.Background()

	out, err := submit.Invoke(ctx, map[string]any{
		"applicant":      "zhang wei",
		"amount":         6500.0,
		"invoice_number": "INV-20240311-001",
	})
	if err != nil {
		t.Fatal(err)
	}
	data := out.(map[string]any)
	if data["status"] != "under_review" {
		t.Fatalf("amount above threshold should land under_review, got %v", data["status"])
	}

	status, err := query.Invoke(ctx, map[string]any{"bill_id": data["bill_id"]})
	if err != nil {
		t.Fatal(err)
	}
	if status.(Bill).Amount != 6500.0 {
		t.Fatalf("bill amount = %v", status.(Bill).Amount)
	}

	if !submit.NonSkippable() {
		t.Fatal("submit_reimbursement must be non-skippable")
	}
}

func TestAllowanceTool(t *testing.T) {
	tool := NewAllowanceTool(DefaultPolicy())
	out, err := tool.Invoke(context.Background(), map[string]any{"days": 3, "destination": "Shanghai"})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]any)["allowance"] != 450.0 {
		t.Fatalf("allowance = %v", out.(map[string]any)["allowance"])
	}
}

func TestBudgetAndTravelQueries(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	budget := NewBudgetTool(ledger)
	if _, err := budget.Invoke(ctx, map[string]any{"department": "Engineering"}); err != nil {
		t.Fatalf("case-insensitive department lookup failed: %v", err)
	}
	if _, err := budget.Invoke(ctx, map[string]any{"department": "unknown"}); err == nil {
		t.Fatal("unknown department should fail")
	}

	travel := NewTravelApplicationTool(ledger)
	out, err := travel.Invoke(ctx, map[string]any{"applicant": "Zhang Wei"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.([]TravelApplication)) != 1 {
		t.Fatalf("applications = %v", out)
	}
}

func TestPolicyLoadAndCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte("approval_threshold: 3000\nper_diem: 200\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.ApprovalThreshold != 3000 {
		t.Fatalf("threshold = %v", p.ApprovalThreshold)
	}
	// Unset fields keep defaults.
	if p.HotelNightlyCap != 500 {
		t.Fatalf("hotel cap = %v", p.HotelNightlyCap)
	}

	if ok, _ := p.Check(2000); !ok {
		t.Fatal("2000 should pass a 3000 threshold")
	}
	ok, reason := p.Check(6500)
	if ok || reason == "" {
		t.Fatalf("6500 should fail with a reason, got ok=%v reason=%q", ok, reason)
	}
}
