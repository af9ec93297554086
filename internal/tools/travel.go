package tools

import (
	"context"
	"fmt"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// TravelApplicationTool looks up pre-approved trips for an applicant.
type TravelApplicationTool struct {
	base
	ledger *Ledger
}

// NewTravelApplicationTool builds the query_travel_application tool.
func NewTravelApplicationTool(ledger *Ledger) *TravelApplicationTool {
	return &TravelApplicationTool{
		base: base{
			name:        "query_travel_application",
			description: "List approved travel applications for an employee",
			params: schema.NewParameters().
				String("applicant", "employee name", true),
		},
		ledger: ledger,
	}
}

func (t *TravelApplicationTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		Applicant string `json:"applicant"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	apps := t.ledger.applications(in.Applicant)
	if len(apps) == 0 {
		return nil, fmt.Errorf("no approved travel applications for %s", in.Applicant)
	}
	return apps, nil
}
