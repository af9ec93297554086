// Package tools implements the reimbursement tool set exposed to the
// planner, backed by deterministic local ledgers.
package tools

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the reimbursement thresholds loaded from YAML.
type Policy struct {
	Currency          string  `yaml:"currency"`
	ApprovalThreshold float64 `yaml:"approval_threshold"`
	HotelNightlyCap   float64 `yaml:"hotel_nightly_cap"`
	MealDailyCap      float64 `yaml:"meal_daily_cap"`
	PerDiem           float64 `yaml:"per_diem"`

	// PrivilegedTools lists tool names that may not run without an
	// explicit permission grant from a human.
	PrivilegedTools []string `yaml:"privileged_tools"`
}

// DefaultPolicy mirrors the shipped policy file.
func DefaultPolicy() Policy {
	return Policy{
		Currency:          "CNY",
		ApprovalThreshold: 5000,
		HotelNightlyCap:   500,
		MealDailyCap:      200,
		PerDiem:           150,
	}
}

// LoadPolicy reads thresholds from a YAML file, filling gaps with
// defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy file: %w", err)
	}
	return p, nil
}

// Privileged reports whether the named tool needs a permission grant.
func (p Policy) Privileged(tool string) bool {
	for _, name := range p.PrivilegedTools {
		if name == tool {
			return true
		}
	}
	return false
}

// Check reports whether an amount can proceed without human approval,
// with the reason when it cannot.
func (p Policy) Check(amount float64) (ok bool, reason string) {
	if amount <= 0 {
		return false, "claimed amount must be positive"
	}
	if amount > p.ApprovalThreshold {
		return false, fmt.Sprintf("amount %.2f %s exceeds approval threshold %.2f", amount, p.Currency, p.ApprovalThreshold)
	}
	return true, ""
}
