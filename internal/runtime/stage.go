package runtime

import (
	"context"
	"log/slog"

	"github.com/aaasjp/travel-bill-agent/internal/logging"
	"github.com/aaasjp/travel-bill-agent/internal/tools"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/observability"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
	"github.com/aaasjp/travel-bill-agent/pkg/registry"
)

// Stage is one unit of the workflow. Execute never mutates its input:
// it returns a derived state via Clone.
type Stage interface {
	ID() domain.StageID
	Execute(ctx context.Context, state *domain.State) (*domain.State, error)
}

// Deps carries the collaborators shared by the stages.
type Deps struct {
	LLM       ports.ChatModel
	Retriever ports.Retriever
	Registry  *registry.Registry
	Knowledge ports.KnowledgeLog
	Policy    tools.Policy
	Logger    *slog.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics

	// TopK bounds knowledge retrieval per prompt.
	TopK int
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.TopK == 0 {
		d.TopK = 3
	}
}

// retrieveContext builds the knowledge-context block for a prompt.
// Retrieval failures degrade to an empty context, never to a stage error.
func (d *Deps) retrieveContext(ctx context.Context, query string) string {
	if d.Retriever == nil {
		return ""
	}
	hits, err := d.Retriever.Retrieve(ctx, query, d.TopK)
	if err != nil {
		d.Logger.Warn("knowledge retrieval failed", "err", err)
		return ""
	}
	var out string
	for _, hit := range hits {
		if hit.Title != "" {
			out += "[" + hit.Title + "] "
		}
		out += hit.Content + "\n"
	}
	return out
}
