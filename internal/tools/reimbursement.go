package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// SubmitReimbursementTool files a reimbursement bill. It is the one
// non-skippable tool: when submission fails the turn must not proceed
// as if money had moved.
type SubmitReimbursementTool struct {
	base
	ledger *Ledger
	policy Policy
}

// NewSubmitReimbursementTool builds the submit_reimbursement tool.
func NewSubmitReimbursementTool(ledger *Ledger, policy Policy) *SubmitReimbursementTool {
	return &SubmitReimbursementTool{
		base: base{
			name:        "submit_reimbursement",
			description: "Submit a reimbursement bill for payment",
			params: schema.NewParameters().
				String("applicant", "employee filing the claim", true).
				Number("amount", "total claimed amount", true).
				String("invoice_number", "verified invoice backing the claim", true).
				String("record_id", "expense record the bill is drawn from", false),
			nonSkippable: true,
		},
		ledger: ledger,
		policy: policy,
	}
}

type submitArgs struct {
	Applicant     string  `json:"applicant"`
	Amount        float64 `json:"amount"`
	InvoiceNumber string  `json:"invoice_number"`
	RecordID      string  `json:"record_id"`
}

func (t *SubmitReimbursementTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in submitArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("claimed amount must be positive, got %.2f", in.Amount)
	}
	if in.RecordID != "" {
		if _, ok := t.ledger.expense(in.RecordID); !ok {
			return nil, fmt.Errorf("expense record %s not found", in.RecordID)
		}
	}

	status := "submitted"
	if in.Amount > t.policy.ApprovalThreshold {
		status = "under_review"
	}
	bill := t.ledger.addBill(Bill{
		Applicant:   in.Applicant,
		Amount:      in.Amount,
		Status:      status,
		SubmittedAt: time.Now().UTC(),
	})
	return map[string]any{
		"bill_id":        bill.ID,
		"status":         bill.Status,
		"amount":         bill.Amount,
		"invoice_number": in.InvoiceNumber,
	}, nil
}

// ReimbursementStatusTool reports the state of a submitted bill.
type ReimbursementStatusTool struct {
	base
	ledger *Ledger
}

// NewReimbursementStatusTool builds the query_reimbursement_status tool.
func NewReimbursementStatusTool(ledger *Ledger) *ReimbursementStatusTool {
	return &ReimbursementStatusTool{
		base: base{
			name:        "query_reimbursement_status",
			description: "Look up the processing status of a reimbursement bill",
			params: schema.NewParameters().
				String("bill_id", "bill identifier returned by submit_reimbursement", true),
		},
		ledger: ledger,
	}
}

func (t *ReimbursementStatusTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		BillID string `json:"bill_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	bill, ok := t.ledger.bill(in.BillID)
	if !ok {
		return nil, fmt.Errorf("bill %s not found", in.BillID)
	}
	return bill, nil
}
