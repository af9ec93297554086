package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/session"
)

// Engine drives the stage/router loop: load-or-create state, execute
// the current stage, persist the result, and either continue, suspend
// on waiting_for_human, or finish at Terminal.
type Engine struct {
	sessions *session.Manager
	stages   map[domain.StageID]Stage
	deps     *Deps

	maxTransitions int
	logger         *slog.Logger
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithMaxTransitions caps stage executions per turn. The cap is a
// safety net behind the reflection loop detector.
func WithMaxTransitions(n int) EngineOption {
	return func(e *Engine) { e.maxTransitions = n }
}

// NewEngine wires the stages over shared dependencies.
func NewEngine(sessions *session.Manager, deps Deps, opts ...EngineOption) *Engine {
	deps.defaults()
	d := &deps

	manager := NewInterventionManager(d.Knowledge, d.Logger)
	validator := NewValidator(d.Registry)

	e := &Engine{
		sessions: sessions,
		deps:     d,
		stages: map[domain.StageID]Stage{
			domain.StageAnalysis:          NewAnalysisStage(d),
			domain.StagePlanning:          NewPlanningStage(d),
			domain.StageDecision:          NewDecisionStage(d, validator, manager),
			domain.StageToolExecution:     NewToolExecutionStage(d),
			domain.StageReflection:        NewReflectionStage(d),
			domain.StageConversation:      NewConversationStage(d),
			domain.StageHumanIntervention: NewHumanInterventionStage(d, manager),
		},
		maxTransitions: 50,
		logger:         d.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartOrContinue feeds external input into a thread. A fresh or idle
// thread starts a new turn at Analysis; a suspended thread treats the
// input as provided information and resumes.
func (e *Engine) StartOrContinue(ctx context.Context, threadID, userInput string) (*domain.State, error) {
	var out *domain.State
	err := e.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		state, err := e.sessions.Store().Load(ctx, threadID)
		switch {
		case errors.Is(err, domain.ErrThreadNotFound):
			state = domain.NewState(threadID, userInput)
		case err != nil:
			return err
		}

		if state.Status == domain.StatusWaitingForHuman {
			// Free-form text against a suspended thread answers the
			// outstanding question. The resolution step records the
			// note in the conversation history.
			state.InterventionResponse = &domain.InterventionResponse{
				Action: domain.ActionProvideInfo,
				Note:   userInput,
			}
			out, err = e.run(ctx, state, domain.StageHumanIntervention)
			return err
		}

		resetTurn(state, userInput)
		out, err = e.run(ctx, state, domain.StageAnalysis)
		return err
	})
	return out, err
}

// Resume answers an outstanding intervention request. Resuming a thread
// that is not suspended fails with StaleResumptionError and leaves the
// stored state untouched.
func (e *Engine) Resume(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error) {
	var out *domain.State
	err := e.sessions.WithLock(ctx, threadID, func(ctx context.Context) error {
		state, err := e.sessions.Store().Load(ctx, threadID)
		if errors.Is(err, domain.ErrThreadNotFound) {
			return &domain.StaleResumptionError{ThreadID: threadID}
		}
		if err != nil {
			return err
		}
		if state.Status != domain.StatusWaitingForHuman {
			return &domain.StaleResumptionError{ThreadID: threadID, Status: state.Status}
		}

		state.InterventionResponse = &resp
		out, err = e.run(ctx, state, domain.StageHumanIntervention)
		return err
	})
	return out, err
}

// Inspect returns the stored snapshot of a thread.
func (e *Engine) Inspect(ctx context.Context, threadID string) (*domain.State, error) {
	return e.sessions.Load(ctx, threadID)
}

// Threads lists known thread IDs.
func (e *Engine) Threads(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// run executes the loop from the entry stage. The caller must hold the
// thread lock.
func (e *Engine) run(ctx context.Context, state *domain.State, entry domain.StageID) (*domain.State, error) {
	start := time.Now()
	current := entry

	for i := 0; i < e.maxTransitions; i++ {
		stage, ok := e.stages[current]
		if !ok {
			return state, fmt.Errorf("no stage registered for %s", current)
		}

		result, err := e.executeStage(ctx, stage, state)
		if err != nil {
			// Stage failures are routed to a human, not propagated —
			// unless the intervention stage itself is failing.
			if current == domain.StageHumanIntervention {
				return state, fmt.Errorf("intervention stage failed: %w", err)
			}
			e.logger.Error("stage failed, routing to human intervention",
				"thread_id", state.ThreadID, "stage", string(current), "err", err)

			result = state.Clone()
			result.RecordError(current, err.Error())
			result.Status = domain.StatusRunning
			result.CurrentStage = current
			result.Touch()
			if serr := e.sessions.Store().Save(ctx, state.ThreadID, result); serr != nil {
				return result, fmt.Errorf("failed to persist state: %w", serr)
			}
			state = result
			current = domain.StageHumanIntervention
			continue
		}

		result.CurrentStage = current
		result.Touch()
		if err := e.sessions.Store().Save(ctx, state.ThreadID, result); err != nil {
			return result, fmt.Errorf("failed to persist state: %w", err)
		}
		if e.deps.Metrics != nil {
			e.deps.Metrics.StageTransitions.WithLabelValues(string(current)).Inc()
		}

		if result.Status == domain.StatusWaitingForHuman {
			e.observeTurn(result, start)
			e.logger.Info("turn suspended",
				"thread_id", result.ThreadID, "stage", string(current),
				"intervention_type", string(result.InterventionRequest.Type))
			return result, nil
		}

		next, rerr := Next(current, result)
		if rerr != nil {
			e.logger.Warn("routing failed closed", "thread_id", result.ThreadID, "err", rerr)
		}
		if next == domain.StageTerminal {
			e.observeTurn(result, start)
			e.logger.Info("turn finished", "thread_id", result.ThreadID, "status", string(result.Status))
			return result, nil
		}

		state = result
		current = next
	}

	return state, fmt.Errorf("turn exceeded %d stage transitions", e.maxTransitions)
}

// executeStage runs one stage with panic containment.
func (e *Engine) executeStage(ctx context.Context, stage Stage, state *domain.State) (result *domain.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("stage %s panicked: %v", stage.ID(), r)
		}
	}()
	return stage.Execute(ctx, state)
}

func (e *Engine) observeTurn(state *domain.State, start time.Time) {
	if e.deps.Metrics == nil {
		return
	}
	e.deps.Metrics.TurnsTotal.WithLabelValues(string(state.Status)).Inc()
	e.deps.Metrics.TurnDuration.Observe(time.Since(start).Seconds())
	if state.Status == domain.StatusWaitingForHuman && state.InterventionRequest != nil {
		e.deps.Metrics.Suspensions.WithLabelValues(string(state.InterventionRequest.Type)).Inc()
	}
}

// resetTurn prepares an existing thread for a fresh turn, keeping the
// conversation history and the audit journal.
func resetTurn(state *domain.State, userInput string) {
	state.UserInput = userInput
	state.Status = domain.StatusRunning
	state.CurrentStage = domain.StageAnalysis
	state.Intent = nil
	state.Plan = nil
	state.PendingTools = nil
	state.ValidatedTools = nil
	state.CompletedTools = nil
	state.ToolResults = make(map[string]domain.ToolResult)
	state.Approvals = nil
	state.InterventionRequest = nil
	state.InterventionResponse = nil
	state.Reflection = nil
	state.Errors = nil
	state.FinalOutput = ""
	state.Messages = append(state.Messages, domain.Message{Role: "user", Content: userInput, At: time.Now().UTC()})
}
