package tools

import (
	"context"
	"fmt"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// ExpenseRecordTool creates, fetches, and lists expense records.
type ExpenseRecordTool struct {
	base
	ledger *Ledger
}

// NewExpenseRecordTool builds the manage_expense_records tool.
func NewExpenseRecordTool(ledger *Ledger) *ExpenseRecordTool {
	return &ExpenseRecordTool{
		base: base{
			name:        "manage_expense_records",
			description: "Create, fetch, or list travel expense records",
			params: schema.NewParameters().
				Enum("action", "operation to perform", true, "create", "get", "list").
				String("record_id", "record to fetch (get)", false).
				String("travel_date", "trip date, YYYY-MM-DD (create)", false).
				String("destination", "trip destination (create)", false).
				String("purpose", "trip purpose (create)", false).
				Enum("category", "expense category", false, "flight", "hotel", "meal", "transport", "other").
				Number("amount", "claimed amount (create)", false),
		},
		ledger: ledger,
	}
}

type expenseArgs struct {
	Action      string  `json:"action"`
	RecordID    string  `json:"record_id"`
	TravelDate  string  `json:"travel_date"`
	Destination string  `json:"destination"`
	Purpose     string  `json:"purpose"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

func (t *ExpenseRecordTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in expenseArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	switch in.Action {
	case "create":
		if in.Amount <= 0 {
			return nil, fmt.Errorf("expense record needs a positive amount, got %.2f", in.Amount)
		}
		rec := t.ledger.addExpense(ExpenseRecord{
			TravelDate:  in.TravelDate,
			Destination: in.Destination,
			Purpose:     in.Purpose,
			Category:    in.Category,
			Amount:      in.Amount,
		})
		return rec, nil

	case "get":
		if in.RecordID == "" {
			return nil, fmt.Errorf("action get requires record_id")
		}
		rec, ok := t.ledger.expense(in.RecordID)
		if !ok {
			return nil, fmt.Errorf("expense record %s not found", in.RecordID)
		}
		return rec, nil

	case "list":
		return t.ledger.listExpenses(), nil

	default:
		return nil, fmt.Errorf("unknown action %q", in.Action)
	}
}
