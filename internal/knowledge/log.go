// Package knowledge stores resolved interventions so later suspensions
// can surface an action that worked before.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/aaasjp/travel-bill-agent/internal/rag"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// Log implements ports.KnowledgeLog over a chromem collection.
type Log struct {
	collection *chromem.Collection
}

// Option configures the log.
type Option func(*options)

type options struct {
	persistPath string
	embed       chromem.EmbeddingFunc
}

// WithPersistence stores the log on disk at path.
func WithPersistence(path string) Option {
	return func(o *options) { o.persistPath = path }
}

// WithEmbedding overrides the embedding function.
func WithEmbedding(fn chromem.EmbeddingFunc) Option {
	return func(o *options) { o.embed = fn }
}

// New opens (or creates) the intervention log collection.
func New(collectionName string, opts ...Option) (*Log, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.embed == nil {
		o.embed = rag.LocalEmbedding()
	}

	var (
		db  *chromem.DB
		err error
	)
	if o.persistPath != "" {
		db, err = chromem.NewPersistentDB(o.persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open intervention log store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, o.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collectionName, err)
	}
	return &Log{collection: collection}, nil
}

// Classify maps a resolved intervention to its record kind. Parameter
// and information supplements become reusable facts; handled exceptions
// become experience; everything else is a task trace.
func Classify(t domain.InterventionType, action string) domain.InterventionRecordKind {
	switch {
	case t == domain.InterventionParameterProvider,
		t == domain.InterventionInfoSupplement,
		action == domain.ActionProvideParameters,
		action == domain.ActionProvideInfo:
		return domain.RecordFact
	case t == domain.InterventionExceptionHandling:
		return domain.RecordExperience
	default:
		return domain.RecordTask
	}
}

// Record stores one resolved intervention.
func (l *Log) Record(ctx context.Context, rec domain.InterventionRecord) error {
	if rec.Kind == "" {
		rec.Kind = Classify(rec.Type, rec.Action)
	}
	if rec.ResolvedAt.IsZero() {
		rec.ResolvedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal intervention record: %w", err)
	}

	content := rec.Reason
	if len(rec.Tools) > 0 {
		content += " tools: " + strings.Join(rec.Tools, " ")
	}
	if len(rec.Errors) > 0 {
		content += " errors: " + strings.Join(rec.Errors, " ")
	}

	doc := chromem.Document{
		ID:      domain.NewID(),
		Content: content,
		Metadata: map[string]string{
			"thread_id": rec.ThreadID,
			"kind":      string(rec.Kind),
			"type":      string(rec.Type),
			"action":    rec.Action,
			"record":    string(payload),
		},
	}
	if err := l.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("failed to store intervention record: %w", err)
	}
	return nil
}

// Similar returns past records of the same intervention type resembling
// the pending request, best match first.
func (l *Log) Similar(ctx context.Context, req domain.InterventionRequest, k int) ([]domain.InterventionRecord, error) {
	if n := l.collection.Count(); k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	query := req.Reason
	if query == "" {
		query = string(req.Type)
	}

	results, err := l.collection.Query(ctx, query, k, map[string]string{"type": string(req.Type)}, nil)
	if err != nil {
		// A type filter matching nothing is not an error for callers;
		// recommendations are best-effort.
		return nil, nil
	}

	records := make([]domain.InterventionRecord, 0, len(results))
	for _, res := range results {
		var rec domain.InterventionRecord
		if err := json.Unmarshal([]byte(res.Metadata["record"]), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
