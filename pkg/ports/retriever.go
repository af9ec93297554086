package ports

import (
	"context"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// Retriever serves policy and reference passages for grounding the
// analysis and planning prompts.
type Retriever interface {
	// Retrieve returns up to k passages relevant to the query, best first.
	// An empty result is not an error.
	Retrieve(ctx context.Context, query string, k int) ([]domain.KnowledgeHit, error)
}
