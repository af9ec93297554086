package ports

import (
	"context"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// KnowledgeLog accumulates resolved interventions so later suspensions
// can recommend actions that worked before.
type KnowledgeLog interface {
	// Record stores one resolved intervention.
	Record(ctx context.Context, rec domain.InterventionRecord) error

	// Similar returns past records resembling the pending request,
	// best match first.
	Similar(ctx context.Context, req domain.InterventionRequest, k int) ([]domain.InterventionRecord, error)
}
