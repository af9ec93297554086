// Package rag grounds the reasoning prompts in policy and reference
// documents using a local embedded vector store.
package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// Document is one ingestible passage.
type Document struct {
	ID      string
	Content string
	Source  string
	DocType string // "policy", "faq", "guide"
	Title   string
}

// Retriever implements ports.Retriever over a chromem collection.
type Retriever struct {
	collection *chromem.Collection
}

// Option configures the retriever.
type Option func(*options)

type options struct {
	persistPath string
	embed       chromem.EmbeddingFunc
}

// WithPersistence stores the vector index on disk at path.
func WithPersistence(path string) Option {
	return func(o *options) { o.persistPath = path }
}

// WithEmbedding overrides the embedding function, e.g. with
// chromem.NewEmbeddingFuncOpenAI for production deployments.
func WithEmbedding(fn chromem.EmbeddingFunc) Option {
	return func(o *options) { o.embed = fn }
}

// New opens (or creates) the knowledge base collection.
func New(collectionName string, opts ...Option) (*Retriever, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.embed == nil {
		o.embed = LocalEmbedding()
	}

	var (
		db  *chromem.DB
		err error
	)
	if o.persistPath != "" {
		db, err = chromem.NewPersistentDB(o.persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, o.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collectionName, err)
	}
	return &Retriever{collection: collection}, nil
}

// Add ingests documents into the knowledge base.
func (r *Retriever) Add(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	converted := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		converted = append(converted, chromem.Document{
			ID:      d.ID,
			Content: d.Content,
			Metadata: map[string]string{
				"source":   d.Source,
				"doc_type": d.DocType,
				"title":    d.Title,
			},
		})
	}
	if err := r.collection.AddDocuments(ctx, converted, 1); err != nil {
		return fmt.Errorf("failed to ingest documents: %w", err)
	}
	return nil
}

// Retrieve returns up to k passages relevant to the query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.KnowledgeHit, error) {
	if n := r.collection.Count(); k > n {
		k = n
	}
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	results, err := r.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge base query: %w", err)
	}

	hits := make([]domain.KnowledgeHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, domain.KnowledgeHit{
			Content: res.Content,
			Source:  res.Metadata["source"],
			DocType: res.Metadata["doc_type"],
			Title:   res.Metadata["title"],
			Score:   float64(res.Similarity),
		})
	}
	return hits, nil
}

// LocalEmbedding returns a deterministic bag-of-words hash embedding.
// It needs no network access and keeps relative similarity for texts
// sharing vocabulary, which is enough for tests and offline use.
func LocalEmbedding() chromem.EmbeddingFunc {
	const dims = 256
	return func(ctx context.Context, text string) ([]float32, error) {
		vec := make([]float32, dims)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[h.Sum32()%dims]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}
