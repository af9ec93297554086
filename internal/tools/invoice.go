package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// InvoiceTool verifies and registers invoices against an expense record.
type InvoiceTool struct {
	base
	ledger *Ledger
}

// NewInvoiceTool builds the process_invoices tool.
func NewInvoiceTool(ledger *Ledger) *InvoiceTool {
	return &InvoiceTool{
		base: base{
			name:        "process_invoices",
			description: "Verify an invoice and attach it to an expense record",
			params: schema.NewParameters().
				String("invoice_number", "invoice number, e.g. INV-20240311-001", true).
				Number("amount", "invoice amount", true).
				String("record_id", "expense record to attach the invoice to", false).
				Enum("invoice_type", "kind of invoice", false, "vat_special", "vat_ordinary", "electronic"),
		},
		ledger: ledger,
	}
}

type invoiceArgs struct {
	InvoiceNumber string  `json:"invoice_number"`
	Amount        float64 `json:"amount"`
	RecordID      string  `json:"record_id"`
	InvoiceType   string  `json:"invoice_type"`
}

// Invoke validates the invoice number format and amount, then attaches
// the invoice to the expense record when one is referenced.
func (t *InvoiceTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in invoiceArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(in.InvoiceNumber, "INV-") {
		return nil, fmt.Errorf("invoice %s failed verification: unknown number format", in.InvoiceNumber)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("invoice %s failed verification: non-positive amount", in.InvoiceNumber)
	}

	result := map[string]any{
		"invoice_number": in.InvoiceNumber,
		"amount":         in.Amount,
		"tax_amount":     in.Amount * 0.06,
		"verified":       true,
	}
	if in.InvoiceType != "" {
		result["invoice_type"] = in.InvoiceType
	}

	if in.RecordID != "" {
		rec, ok := t.ledger.expense(in.RecordID)
		if !ok {
			return nil, fmt.Errorf("expense record %s not found", in.RecordID)
		}
		rec.InvoiceIDs = append(rec.InvoiceIDs, in.InvoiceNumber)
		t.ledger.addExpense(rec)
		result["record_id"] = rec.ID
	}
	return result, nil
}
