package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aaasjp/travel-bill-agent/pkg/registry"
	"github.com/aaasjp/travel-bill-agent/pkg/schema"
)

// base carries the descriptor shared by every tool implementation.
type base struct {
	name         string
	description  string
	params       *schema.Parameters
	nonSkippable bool
}

func (b base) Name() string                   { return b.name }
func (b base) Description() string            { return b.description }
func (b base) Parameters() *schema.Parameters { return b.params }
func (b base) NonSkippable() bool             { return b.nonSkippable }

// decodeArgs maps validated JSON arguments onto a typed struct.
// WeaklyTypedInput tolerates the usual JSON number/string drift.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}

// RegisterAll wires the full reimbursement tool set into a registry,
// sharing one ledger and one policy.
func RegisterAll(reg *registry.Registry, ledger *Ledger, policy Policy) {
	reg.Register(registry.GroupBusinessTrip, NewInvoiceTool(ledger))
	reg.Register(registry.GroupBusinessTrip, NewExpenseRecordTool(ledger))
	reg.Register(registry.GroupBusinessTrip, NewSubmitReimbursementTool(ledger, policy))
	reg.Register(registry.GroupBusinessTrip, NewReimbursementStatusTool(ledger))
	reg.Register(registry.GroupBusinessTrip, NewTravelApplicationTool(ledger))
	reg.Register(registry.GroupBusinessTrip, NewAllowanceTool(policy))
	reg.Register(registry.GroupBusinessTrip, NewBudgetTool(ledger))
}
