package rag

import (
	"context"
	"testing"
)

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()
	r, err := New("test-kb")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRetrieve(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	err := r.Add(ctx,
		Document{ID: "pol-1", Content: "hotel expense limit is 500 CNY per night for domestic travel", Source: "travel_policy.md", DocType: "policy", Title: "Hotel limits"},
		Document{ID: "pol-2", Content: "flights above 5000 CNY require manager approval before reimbursement", Source: "travel_policy.md", DocType: "policy", Title: "Flight approval"},
		Document{ID: "faq-1", Content: "submit invoices within 30 days of the trip end date", Source: "faq.md", DocType: "faq", Title: "Deadlines"},
	)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := r.Retrieve(ctx, "approval required for expensive flights reimbursement", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Source == "" || hits[0].DocType == "" {
		t.Fatalf("metadata not mapped: %+v", hits[0])
	}
	if hits[0].Title != "Flight approval" {
		t.Fatalf("best hit = %q, want Flight approval", hits[0].Title)
	}
}

func TestRetrieveClampsK(t *testing.T) {
	r := newTestRetriever(t)
	ctx := context.Background()

	if err := r.Add(ctx, Document{ID: "only", Content: "meal allowance is 100 CNY per day"}); err != nil {
		t.Fatal(err)
	}

	hits, err := r.Retrieve(ctx, "meal allowance", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
}

func TestRetrieveEmptyCollection(t *testing.T) {
	r := newTestRetriever(t)

	hits, err := r.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatal(err)
	}
	if hits != nil {
		t.Fatalf("expected no hits, got %v", hits)
	}
}
