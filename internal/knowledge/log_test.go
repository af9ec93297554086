package knowledge

import (
	"context"
	"testing"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		typ    domain.InterventionType
		action string
		want   domain.InterventionRecordKind
	}{
		{domain.InterventionParameterProvider, domain.ActionProvideParameters, domain.RecordFact},
		{domain.InterventionInfoSupplement, domain.ActionProvideInfo, domain.RecordFact},
		{domain.InterventionExceptionHandling, domain.ActionResolve, domain.RecordExperience},
		{domain.InterventionDecisionConfirmation, domain.ActionApprove, domain.RecordTask},
		{domain.InterventionPermissionGrant, domain.ActionGrant, domain.RecordTask},
	}
	for _, tt := range tests {
		if got := Classify(tt.typ, tt.action); got != tt.want {
			t.Errorf("Classify(%s, %s) = %s, want %s", tt.typ, tt.action, got, tt.want)
		}
	}
}

func TestRecordAndSimilar(t *testing.T) {
	log, err := New("test-interventions")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	records := []domain.InterventionRecord{
		{
			ThreadID: "t-1",
			Type:     domain.InterventionDecisionConfirmation,
			Action:   domain.ActionApprove,
			Reason:   "expense amount 6500 exceeds approval threshold 5000",
		},
		{
			ThreadID: "t-2",
			Type:     domain.InterventionDecisionConfirmation,
			Action:   domain.ActionApprove,
			Reason:   "expense amount 8000 exceeds approval threshold 5000",
		},
		{
			ThreadID: "t-3",
			Type:     domain.InterventionExceptionHandling,
			Action:   domain.ActionSkipTool,
			Reason:   "invoice verification service unreachable",
		},
	}
	for _, rec := range records {
		if err := log.Record(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	similar, err := log.Similar(ctx, domain.InterventionRequest{
		Type:   domain.InterventionDecisionConfirmation,
		Reason: "expense amount 7200 exceeds approval threshold 5000",
	}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(similar) != 2 {
		t.Fatalf("got %d similar records, want 2", len(similar))
	}
	for _, rec := range similar {
		if rec.Type != domain.InterventionDecisionConfirmation {
			t.Fatalf("type filter leaked: %+v", rec)
		}
		if rec.Action != domain.ActionApprove {
			t.Fatalf("action = %q", rec.Action)
		}
	}

	// Kind defaults from classification on Record.
	if similar[0].Kind != domain.RecordTask {
		t.Fatalf("kind = %s, want task", similar[0].Kind)
	}
}

func TestSimilarEmptyLog(t *testing.T) {
	log, err := New("empty-interventions")
	if err != nil {
		t.Fatal(err)
	}
	got, err := log.Similar(context.Background(), domain.InterventionRequest{Type: domain.InterventionPermissionGrant}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
