package runtime

import (
	"testing"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

func TestRouterTable(t *testing.T) {
	tests := []struct {
		name    string
		stage   domain.StageID
		state   *domain.State
		want    domain.StageID
		wantErr bool
	}{
		{
			name:  "analysis always plans",
			stage: domain.StageAnalysis,
			state: &domain.State{Status: domain.StatusRunning},
			want:  domain.StagePlanning,
		},
		{
			name:  "planning conversation_ready",
			stage: domain.StagePlanning,
			state: &domain.State{Status: domain.StatusConversationReady},
			want:  domain.StageConversation,
		},
		{
			name:  "planning decision_ready",
			stage: domain.StagePlanning,
			state: &domain.State{Status: domain.StatusDecisionReady},
			want:  domain.StageDecision,
		},
		{
			name:  "planning default",
			stage: domain.StagePlanning,
			state: &domain.State{Status: domain.StatusRunning},
			want:  domain.StageDecision,
		},
		{
			name:  "decision suspends",
			stage: domain.StageDecision,
			state: &domain.State{Status: domain.StatusWaitingForHuman},
			want:  domain.StageHumanIntervention,
		},
		{
			name:  "decision dispatches execution",
			stage: domain.StageDecision,
			state: &domain.State{Status: domain.StatusReadyForExecution, PendingTools: []domain.ToolCall{{ID: "c1"}}},
			want:  domain.StageToolExecution,
		},
		{
			name:  "decision ready but nothing pending",
			stage: domain.StageDecision,
			state: &domain.State{Status: domain.StatusReadyForExecution},
			want:  domain.StageReflection,
		},
		{
			name:  "decision default reflects",
			stage: domain.StageDecision,
			state: &domain.State{Status: domain.StatusRunning},
			want:  domain.StageReflection,
		},
		{
			name:  "execution always reflects",
			stage: domain.StageToolExecution,
			state: &domain.State{Status: domain.StatusExecutionFailed},
			want:  domain.StageReflection,
		},
		{
			name:  "reflection repetition escalates",
			stage: domain.StageReflection,
			state: &domain.State{Status: domain.StatusRunning, Reflection: &domain.Reflection{DetectedRepetition: true}},
			want:  domain.StageHumanIntervention,
		},
		{
			name:  "reflection escalate action",
			stage: domain.StageReflection,
			state: &domain.State{Status: domain.StatusRunning, Reflection: &domain.Reflection{Action: domain.ReflectionEscalate}},
			want:  domain.StageHumanIntervention,
		},
		{
			name:  "reflection replan",
			stage: domain.StageReflection,
			state: &domain.State{Status: domain.StatusRunning, Reflection: &domain.Reflection{Action: domain.ReflectionReplan}},
			want:  domain.StagePlanning,
		},
		{
			name:  "reflection continue",
			stage: domain.StageReflection,
			state: &domain.State{Status: domain.StatusRunning, Reflection: &domain.Reflection{Action: domain.ReflectionContinue}},
			want:  domain.StageDecision,
		},
		{
			name:  "reflection end terminates",
			stage: domain.StageReflection,
			state: &domain.State{Status: domain.StatusCompleted, Reflection: &domain.Reflection{Action: domain.ReflectionEnd}},
			want:  domain.StageTerminal,
		},
		{
			name:  "reflection nil terminates",
			stage: domain.StageReflection,
			state: &domain.State{Status: domain.StatusCompleted},
			want:  domain.StageTerminal,
		},
		{
			name:  "conversation completed terminates",
			stage: domain.StageConversation,
			state: &domain.State{Status: domain.StatusConversationCompleted},
			want:  domain.StageTerminal,
		},
		{
			name:  "conversation error escalates",
			stage: domain.StageConversation,
			state: &domain.State{Status: domain.StatusConversationError},
			want:  domain.StageHumanIntervention,
		},
		{
			name:  "intervention re-suspends",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusWaitingForHuman},
			want:  domain.StageHumanIntervention,
		},
		{
			name:  "intervention replan",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusRunning, InterventionResponse: &domain.InterventionResponse{Action: domain.ActionReplan}},
			want:  domain.StagePlanning,
		},
		{
			name:  "intervention approve continues at decision",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusRunning, InterventionResponse: &domain.InterventionResponse{Action: domain.ActionApprove}},
			want:  domain.StageDecision,
		},
		{
			name:  "intervention modify continues at decision",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusRunning, InterventionResponse: &domain.InterventionResponse{Action: domain.ActionModify}},
			want:  domain.StageDecision,
		},
		{
			name:  "intervention provide_parameters continues at decision",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusRunning, InterventionResponse: &domain.InterventionResponse{Action: domain.ActionProvideParameters}},
			want:  domain.StageDecision,
		},
		{
			name:  "intervention reject terminates",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusCompleted, InterventionResponse: &domain.InterventionResponse{Action: domain.ActionReject}},
			want:  domain.StageTerminal,
		},
		{
			name:  "intervention without response terminates",
			stage: domain.StageHumanIntervention,
			state: &domain.State{Status: domain.StatusCompleted},
			want:  domain.StageTerminal,
		},
		{
			name:    "unset status fails closed",
			stage:   domain.StageDecision,
			state:   &domain.State{},
			want:    domain.StageHumanIntervention,
			wantErr: true,
		},
		{
			name:    "unknown stage fails closed",
			stage:   domain.StageID("bogus"),
			state:   &domain.State{Status: domain.StatusRunning},
			want:    domain.StageHumanIntervention,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.stage, tt.state)
			if got != tt.want {
				t.Fatalf("Next(%s, %s) = %s, want %s", tt.stage, tt.state.Status, got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// Every stage must have a defined arc for every status it can emit.
func TestRouterTotalOverStatuses(t *testing.T) {
	stages := []domain.StageID{
		domain.StageAnalysis, domain.StagePlanning, domain.StageDecision,
		domain.StageToolExecution, domain.StageReflection,
		domain.StageConversation, domain.StageHumanIntervention,
	}
	statuses := []domain.Status{
		domain.StatusRunning, domain.StatusConversationReady,
		domain.StatusDecisionReady, domain.StatusReadyForExecution,
		domain.StatusWaitingForHuman, domain.StatusExecutionFailed,
		domain.StatusConversationCompleted, domain.StatusConversationError,
		domain.StatusCompleted,
	}
	for _, stage := range stages {
		for _, status := range statuses {
			next, err := Next(stage, &domain.State{Status: status})
			if err != nil {
				t.Errorf("Next(%s, %s) errored: %v", stage, status, err)
			}
			if next == "" {
				t.Errorf("Next(%s, %s) returned empty stage", stage, status)
			}
		}
	}
}
