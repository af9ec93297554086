// Package httpapi exposes the Turn API over HTTP: send a message to a
// thread, resume a suspended thread, inspect snapshots, and follow turn
// events over SSE.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aaasjp/travel-bill-agent/internal/logging"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// Engine is the Turn API the server fronts.
type Engine interface {
	StartOrContinue(ctx context.Context, threadID, userInput string) (*domain.State, error)
	Resume(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error)
	Inspect(ctx context.Context, threadID string) (*domain.State, error)
	Threads(ctx context.Context) ([]string, error)
}

// Server holds the handler dependencies.
type Server struct {
	engine   Engine
	streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics mounts /metrics over the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/threads", func(r chi.Router) {
		r.Get("/", s.listThreads)
		r.Post("/", s.createThread)
		r.Route("/{threadID}", func(r chi.Router) {
			r.Get("/", s.inspect)
			r.Post("/messages", s.message)
			r.Post("/resume", s.resume)
			r.Get("/events", s.events)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageRequest is the body of POST /api/threads/{threadID}/messages.
type MessageRequest struct {
	Input string `json:"input"`
}

// TurnResponse is the snapshot returned after a turn suspends or finishes.
type TurnResponse struct {
	ThreadID            string                      `json:"thread_id"`
	Status              domain.Status               `json:"status"`
	CurrentStage        domain.StageID              `json:"current_stage"`
	FinalOutput         string                      `json:"final_output,omitempty"`
	InterventionRequest *domain.InterventionRequest `json:"intervention_request,omitempty"`
	Errors              []domain.StateError         `json:"errors,omitempty"`
}

func turnResponse(state *domain.State) TurnResponse {
	return TurnResponse{
		ThreadID:            state.ThreadID,
		Status:              state.Status,
		CurrentStage:        state.CurrentStage,
		FinalOutput:         state.FinalOutput,
		InterventionRequest: state.InterventionRequest,
		Errors:              state.Errors,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createThread mints a thread ID without starting a turn, so clients can
// subscribe to events before the first message.
func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusCreated, map[string]string{"thread_id": uuid.NewString()})
}

func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Threads(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"threads": ids})
}

func (s *Server) inspect(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Inspect(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) message(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Input == "" {
		http.Error(w, "input must not be empty", http.StatusBadRequest)
		return
	}

	state, err := s.engine.StartOrContinue(r.Context(), threadID, body.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(state)
	s.writeJSON(w, http.StatusOK, turnResponse(state))
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var body domain.InterventionResponse
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Action == "" {
		http.Error(w, "action must not be empty", http.StatusBadRequest)
		return
	}

	state, err := s.engine.Resume(r.Context(), threadID, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(state)
	s.writeJSON(w, http.StatusOK, turnResponse(state))
}

// events streams turn snapshots for one thread as SSE.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	threadID := chi.URLParam(r, "threadID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(threadID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcast(state *domain.State) {
	payload, err := json.Marshal(turnResponse(state))
	if err != nil {
		return
	}
	s.streams.Broadcast(state.ThreadID, string(payload))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stale *domain.StaleResumptionError
	switch {
	case errors.Is(err, domain.ErrThreadNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &stale):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StreamManager fans turn snapshots out to SSE subscribers per thread.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{subscribers: make(map[string]map[chan<- string]struct{})}
}

func (sm *StreamManager) Subscribe(threadID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[threadID]; !ok {
		sm.subscribers[threadID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[threadID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[threadID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, threadID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(threadID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers[threadID] {
		select {
		case ch <- msg:
		default:
			// Slow subscriber; drop rather than block the turn.
		}
	}
}
