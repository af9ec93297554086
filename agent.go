package billagent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aaasjp/travel-bill-agent/internal/config"
	"github.com/aaasjp/travel-bill-agent/internal/knowledge"
	"github.com/aaasjp/travel-bill-agent/internal/llm"
	"github.com/aaasjp/travel-bill-agent/internal/logging"
	"github.com/aaasjp/travel-bill-agent/internal/rag"
	"github.com/aaasjp/travel-bill-agent/internal/runtime"
	"github.com/aaasjp/travel-bill-agent/internal/tools"
	"github.com/aaasjp/travel-bill-agent/pkg/adapters/memory"
	redisadapter "github.com/aaasjp/travel-bill-agent/pkg/adapters/redis"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/observability"
	"github.com/aaasjp/travel-bill-agent/pkg/ports"
	"github.com/aaasjp/travel-bill-agent/pkg/registry"
	"github.com/aaasjp/travel-bill-agent/pkg/session"
)

// Version is the release version of the agent.
var Version = "0.3.0"

// Agent is the high-level entry point: it wires the checkpoint store,
// the chat model, the tool registry, and the workflow engine, and
// exposes the Turn API.
type Agent struct {
	engine   *runtime.Engine
	sessions *session.Manager
	registry *registry.Registry
	policy   tools.Policy
	promReg  *prometheus.Registry
	logger   *slog.Logger

	store     ports.CheckpointStore
	chat      ports.ChatModel
	retriever ports.Retriever
	knowledge ports.KnowledgeLog
	closers   []func() error
}

// Option overrides one wired component.
type Option func(*Agent)

// WithStore injects a checkpoint store, bypassing the configured backend.
func WithStore(store ports.CheckpointStore) Option {
	return func(a *Agent) { a.store = store }
}

// WithChatModel injects a chat model, bypassing the configured endpoint.
func WithChatModel(chat ports.ChatModel) Option {
	return func(a *Agent) { a.chat = chat }
}

// WithRetriever injects a knowledge retriever.
func WithRetriever(r ports.Retriever) Option {
	return func(a *Agent) { a.retriever = r }
}

// WithKnowledgeLog injects an intervention log.
func WithKnowledgeLog(l ports.KnowledgeLog) Option {
	return func(a *Agent) { a.knowledge = l }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithRegistry injects a pre-populated tool registry, e.g. a fake tool
// set for isolated tests.
func WithRegistry(reg *registry.Registry) Option {
	return func(a *Agent) { a.registry = reg }
}

// New assembles an agent from configuration. Options override individual
// components; everything else is built from cfg.
func New(cfg *config.Config, opts ...Option) (*Agent, error) {
	a := &Agent{promReg: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.New(logging.ParseLevel(cfg.Logging.Level))
	}

	sessionOpts := []session.Option{session.WithLogger(a.logger)}
	if a.store == nil {
		if cfg.Redis.Addr != "" {
			store := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
				redisadapter.WithTTL(cfg.Redis.TTL))
			a.store = store
			a.closers = append(a.closers, store.Close)
			sessionOpts = append(sessionOpts,
				session.WithLocker(redisadapter.NewLocker(store.Client(), "billagent:lock:")),
				session.WithLockTTL(cfg.Redis.LockTTL))
		} else {
			a.store = memory.NewStore()
		}
	}
	a.sessions = session.NewManager(a.store, sessionOpts...)

	if a.chat == nil {
		chat, err := llm.New(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		})
		if err != nil {
			return nil, err
		}
		a.chat = chat
	}

	a.policy = tools.DefaultPolicy()
	if cfg.Knowledge.PolicyPath != "" {
		policy, err := tools.LoadPolicy(cfg.Knowledge.PolicyPath)
		if err != nil {
			return nil, err
		}
		a.policy = policy
	}

	if a.registry == nil {
		a.registry = registry.New()
		tools.RegisterAll(a.registry, tools.NewLedger(), a.policy)
	}

	if a.retriever == nil {
		var ragOpts []rag.Option
		if cfg.Knowledge.PersistPath != "" {
			ragOpts = append(ragOpts, rag.WithPersistence(cfg.Knowledge.PersistPath))
		}
		retriever, err := rag.New("policies", ragOpts...)
		if err != nil {
			return nil, err
		}
		if err := seedPolicyDocs(retriever, a.policy); err != nil {
			return nil, fmt.Errorf("failed to seed policy documents: %w", err)
		}
		a.retriever = retriever
	}

	if a.knowledge == nil {
		var logOpts []knowledge.Option
		if cfg.Knowledge.PersistPath != "" {
			logOpts = append(logOpts, knowledge.WithPersistence(cfg.Knowledge.PersistPath))
		}
		klog, err := knowledge.New("interventions", logOpts...)
		if err != nil {
			return nil, err
		}
		a.knowledge = klog
	}

	a.engine = runtime.NewEngine(a.sessions, runtime.Deps{
		LLM:       a.chat,
		Retriever: a.retriever,
		Registry:  a.registry,
		Knowledge: a.knowledge,
		Policy:    a.policy,
		Logger:    a.logger,
		Metrics:   observability.NewMetrics(a.promReg),
		TopK:      cfg.Knowledge.TopK,
	}, runtime.WithMaxTransitions(cfg.Engine.MaxTransitions))

	return a, nil
}

// StartOrContinue feeds user input into a thread and runs it to the next
// suspension or terminal snapshot.
func (a *Agent) StartOrContinue(ctx context.Context, threadID, userInput string) (*domain.State, error) {
	return a.engine.StartOrContinue(ctx, threadID, userInput)
}

// Resume answers an outstanding intervention request on a suspended thread.
func (a *Agent) Resume(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error) {
	return a.engine.Resume(ctx, threadID, resp)
}

// Inspect returns the stored snapshot of a thread.
func (a *Agent) Inspect(ctx context.Context, threadID string) (*domain.State, error) {
	return a.engine.Inspect(ctx, threadID)
}

// Threads lists known thread IDs.
func (a *Agent) Threads(ctx context.Context) ([]string, error) {
	return a.engine.Threads(ctx)
}

// Registry exposes the tool registry for introspection surfaces.
func (a *Agent) Registry() *registry.Registry {
	return a.registry
}

// Policy returns the active reimbursement policy.
func (a *Agent) Policy() tools.Policy {
	return a.policy
}

// Gatherer exposes the metrics registry for the /metrics endpoint.
func (a *Agent) Gatherer() prometheus.Gatherer {
	return a.promReg
}

// Logger returns the agent's structured logger.
func (a *Agent) Logger() *slog.Logger {
	return a.logger
}

// Close releases backing connections.
func (a *Agent) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// seedPolicyDocs loads the built-in policy passages so planning prompts
// can cite concrete rules even before any corporate documents are
// ingested. Re-seeding with the same IDs overwrites in place.
func seedPolicyDocs(r *rag.Retriever, policy tools.Policy) error {
	docs := []rag.Document{
		{
			ID:      "policy-approval-threshold",
			Title:   "Approval threshold",
			Source:  "builtin",
			DocType: "policy",
			Content: fmt.Sprintf("Reimbursement claims above %.0f %s require explicit manager approval before submission.", policy.ApprovalThreshold, policy.Currency),
		},
		{
			ID:      "policy-hotel-cap",
			Title:   "Hotel cap",
			Source:  "builtin",
			DocType: "policy",
			Content: fmt.Sprintf("Hotel expenses are reimbursed up to %.0f %s per night; amounts above the cap need an itemized justification.", policy.HotelNightlyCap, policy.Currency),
		},
		{
			ID:      "policy-meal-cap",
			Title:   "Meal cap",
			Source:  "builtin",
			DocType: "policy",
			Content: fmt.Sprintf("Meal expenses are reimbursed up to %.0f %s per day. Alcohol is not reimbursable.", policy.MealDailyCap, policy.Currency),
		},
		{
			ID:      "policy-per-diem",
			Title:   "Per diem",
			Source:  "builtin",
			DocType: "policy",
			Content: fmt.Sprintf("The travel allowance is %.0f %s per day, computed from the approved travel application dates.", policy.PerDiem, policy.Currency),
		},
		{
			ID:      "policy-invoice",
			Title:   "Invoice requirement",
			Source:  "builtin",
			DocType: "policy",
			Content: "Every reimbursement claim must reference a verified invoice. Invoices are verified before submission and attached to the expense record.",
		},
	}
	return r.Add(context.Background(), docs...)
}
