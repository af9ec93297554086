package tools

import (
	"context"
	"fmt"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// BudgetTool reports the remaining travel budget of a department.
type BudgetTool struct {
	base
	ledger *Ledger
}

// NewBudgetTool builds the query_budget tool.
func NewBudgetTool(ledger *Ledger) *BudgetTool {
	return &BudgetTool{
		base: base{
			name:        "query_budget",
			description: "Check the remaining travel budget of a department",
			params: schema.NewParameters().
				String("department", "department name", true),
		},
		ledger: ledger,
	}
}

func (t *BudgetTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		Department string `json:"department"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	remaining, ok := t.ledger.budget(in.Department)
	if !ok {
		return nil, fmt.Errorf("unknown department %q", in.Department)
	}
	return map[string]any{
		"department": in.Department,
		"remaining":  remaining,
	}, nil
}
