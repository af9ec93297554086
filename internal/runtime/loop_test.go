package runtime

import (
	"context"
	"testing"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

func toolEntries(n int, tool string, args map[string]any) []domain.LogEntry {
	entries := make([]domain.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, domain.LogEntry{
			Stage:     domain.StageToolExecution,
			Action:    "tool_executed",
			Tool:      tool,
			Arguments: args,
		})
	}
	return entries
}

func TestDetectLoop(t *testing.T) {
	args := map[string]any{"invoice_number": "INV-1", "amount": 650.0}

	t.Run("three identical triples trip the guard", func(t *testing.T) {
		lerr := detectLoop(toolEntries(3, "process_invoices", args), loopWindow, loopThreshold)
		if lerr == nil {
			t.Fatal("expected LoopDetectedError")
		}
		if lerr.Tool != "process_invoices" || lerr.Count != 3 {
			t.Fatalf("lerr = %+v", lerr)
		}
	})

	t.Run("two repetitions pass", func(t *testing.T) {
		if lerr := detectLoop(toolEntries(2, "process_invoices", args), loopWindow, loopThreshold); lerr != nil {
			t.Fatalf("unexpected: %v", lerr)
		}
	})

	t.Run("different arguments are different triples", func(t *testing.T) {
		log := toolEntries(2, "process_invoices", args)
		log = append(log, toolEntries(2, "process_invoices", map[string]any{"invoice_number": "INV-2"})...)
		if lerr := detectLoop(log, loopWindow, loopThreshold); lerr != nil {
			t.Fatalf("unexpected: %v", lerr)
		}
	})

	t.Run("repetitions outside the window are forgotten", func(t *testing.T) {
		log := toolEntries(2, "process_invoices", args)
		for i := 0; i < loopWindow; i++ {
			log = append(log, domain.LogEntry{Stage: domain.StageAnalysis, Action: "intent_recognized"})
		}
		log = append(log, toolEntries(1, "process_invoices", args)...)
		if lerr := detectLoop(log, loopWindow, loopThreshold); lerr != nil {
			t.Fatalf("unexpected: %v", lerr)
		}
	})
}

func TestReflectionEscalatesOnLoop(t *testing.T) {
	deps := &Deps{}
	deps.defaults()
	stage := NewReflectionStage(deps)

	state := domain.NewState("t-1", "verify my invoice")
	state.ExecutionLog = toolEntries(3, "process_invoices", map[string]any{"invoice_number": "INV-1"})
	state.Status = domain.StatusRunning

	out, err := stage.Execute(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if out.Reflection == nil || !out.Reflection.DetectedRepetition {
		t.Fatalf("reflection = %+v", out.Reflection)
	}
	if out.Reflection.Action != domain.ReflectionEscalate {
		t.Fatalf("action = %s", out.Reflection.Action)
	}

	next, _ := Next(domain.StageReflection, out)
	if next != domain.StageHumanIntervention {
		t.Fatalf("loop must route to human intervention, got %s", next)
	}
}
