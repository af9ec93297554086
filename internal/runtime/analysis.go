package runtime

import (
	"context"
	"fmt"

	"github.com/aaasjp/travel-bill-agent/internal/llm"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

const analysisSystemPrompt = `You are the intent analyst of a corporate travel reimbursement assistant.
Read the user message and the policy excerpts, then answer with a single JSON object:
{
  "intent": "<snake_case intent, e.g. submit_expense, query_status, book_travel>",
  "slots": {"amount": <number>, "destination": "...", "invoice_number": "...", "applicant": "...", "days": <number>},
  "conversational": <true when the message carries no actionable task>,
  "compliant": <true when the request appears to respect the cited policy>,
  "policy_citation": "<the policy line the judgement is based on, or empty>"
}
Only include slots actually present in the message. Respond with JSON only.`

// AnalysisStage recognizes the intent and extracts slots from the raw
// user input, grounded in retrieved policy passages.
type AnalysisStage struct {
	deps *Deps
}

func NewAnalysisStage(deps *Deps) *AnalysisStage { return &AnalysisStage{deps: deps} }

func (s *AnalysisStage) ID() domain.StageID { return domain.StageAnalysis }

func (s *AnalysisStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()
	next.InterventionResponse = nil

	user := next.UserInput
	if kctx := s.deps.retrieveContext(ctx, user); kctx != "" {
		user = "Policy excerpts:\n" + kctx + "\nUser message: " + next.UserInput
	} else {
		user = "User message: " + next.UserInput
	}

	out, err := s.deps.LLM.Complete(ctx, analysisSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("intent analysis: %w", err)
	}

	var parsed struct {
		Intent         string         `json:"intent"`
		Slots          map[string]any `json:"slots"`
		Conversational bool           `json:"conversational"`
		Compliant      bool           `json:"compliant"`
		PolicyCitation string         `json:"policy_citation"`
	}
	if err := llm.DecodeJSON(out, &parsed); err != nil {
		// A non-JSON reply means the model chatted instead of analyzing;
		// treat the input as conversational rather than failing the turn.
		s.deps.Logger.Warn("analysis output not parseable, falling back to conversation", "err", err)
		parsed.Intent = "chat"
		parsed.Conversational = true
	}

	next.Intent = &domain.Intent{
		Primary:        parsed.Intent,
		Slots:          parsed.Slots,
		Compliant:      parsed.Compliant,
		Conversational: parsed.Conversational,
		PolicyCitation: parsed.PolicyCitation,
	}
	next.Status = domain.StatusRunning
	next.AppendLog(domain.StageAnalysis, "intent_recognized", map[string]any{
		"intent":         parsed.Intent,
		"conversational": parsed.Conversational,
	})
	return next, nil
}
