// Package tui renders agent output for interactive terminal sessions.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// FormatIntervention renders an intervention request as markdown for the
// chat loop: the question, the missing fields, and the available actions.
func FormatIntervention(req *domain.InterventionRequest) string {
	if req == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Input needed** (`%s`, priority %s)\n\n", req.Type, req.Priority))
	b.WriteString(req.Reason + "\n")

	if len(req.MissingFields) > 0 {
		b.WriteString("\nMissing values:\n")
		for _, f := range req.MissingFields {
			b.WriteString("- `" + f + "`\n")
		}
	}
	if len(req.Options) > 0 {
		b.WriteString("\nOptions:\n")
		for _, opt := range req.Options {
			b.WriteString(fmt.Sprintf("- `%s` — %s\n", opt.Action, opt.Description))
		}
	}
	if req.RecommendedAction != "" {
		b.WriteString(fmt.Sprintf("\nSuggested: `%s`\n", req.RecommendedAction))
	}
	return b.String()
}
