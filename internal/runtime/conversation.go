package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

const conversationSystemPrompt = `You are a friendly corporate travel reimbursement assistant.
Answer the user directly and briefly. If the user seems to want a reimbursement
task done, tell them what information you would need (amount, invoice number,
dates). Do not invent policy numbers.`

// ConversationStage answers inputs that carry no actionable task.
type ConversationStage struct {
	deps *Deps
}

func NewConversationStage(deps *Deps) *ConversationStage { return &ConversationStage{deps: deps} }

func (s *ConversationStage) ID() domain.StageID { return domain.StageConversation }

func (s *ConversationStage) Execute(ctx context.Context, state *domain.State) (*domain.State, error) {
	next := state.Clone()
	next.InterventionResponse = nil

	var prompt strings.Builder
	for _, msg := range recentMessages(next.Messages, 6) {
		prompt.WriteString(msg.Role + ": " + msg.Content + "\n")
	}
	prompt.WriteString("user: " + next.UserInput)

	out, err := s.deps.LLM.Complete(ctx, conversationSystemPrompt, prompt.String())
	if err != nil {
		// Conversation has its own failure vocabulary; the router takes
		// conversation_error to HumanIntervention.
		next.RecordError(domain.StageConversation, err.Error())
		next.Status = domain.StatusConversationError
		return next, nil
	}

	next.FinalOutput = out
	next.Messages = append(next.Messages, domain.Message{Role: "assistant", Content: out, At: time.Now().UTC()})
	next.Status = domain.StatusConversationCompleted
	next.AppendLog(domain.StageConversation, "conversation_completed", nil)
	return next, nil
}

func recentMessages(messages []domain.Message, n int) []domain.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
