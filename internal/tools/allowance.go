package tools

import (
	"context"
	"fmt"

	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// AllowanceTool computes the per-diem allowance for a trip.
type AllowanceTool struct {
	base
	policy Policy
}

// NewAllowanceTool builds the process_allowance tool.
func NewAllowanceTool(policy Policy) *AllowanceTool {
	return &AllowanceTool{
		base: base{
			name:        "process_allowance",
			description: "Compute the travel allowance for a trip",
			params: schema.NewParameters().
				Integer("days", "number of trip days", true).
				String("destination", "trip destination", true),
		},
		policy: policy,
	}
}

func (t *AllowanceTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	var in struct {
		Days        int    `json:"days"`
		Destination string `json:"destination"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Days <= 0 {
		return nil, fmt.Errorf("trip length must be positive, got %d days", in.Days)
	}
	return map[string]any{
		"destination": in.Destination,
		"days":        in.Days,
		"per_diem":    t.policy.PerDiem,
		"allowance":   float64(in.Days) * t.policy.PerDiem,
		"currency":    t.policy.Currency,
	}, nil
}
