package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	billagent "github.com/aaasjp/travel-bill-agent"
	"github.com/aaasjp/travel-bill-agent/internal/presentation/tui"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive reimbursement session",
	Long: `Starts an interactive chat loop against a thread. When the agent
suspends with a question, answer it inline:

  approve | reject | replan | end   answer with that action
  name=value [name=value ...]       provide the requested parameters
  anything else                     free-form information`,
	Run: func(cmd *cobra.Command, args []string) {
		threadID, _ := cmd.Flags().GetString("thread")
		if threadID == "" {
			threadID = uuid.NewString()
		}

		agent, _, err := buildAgent(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer agent.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		render := func(s string) (string, error) { return s + "\n", nil }
		if interactive {
			tui.PrintBanner(billagent.Version)
			fmt.Printf("thread: %s\n\n", threadID)
			render = tui.NewRenderer()
		}

		if err := chatLoop(cmd.Context(), agent, threadID, render, interactive); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func chatLoop(ctx context.Context, agent *billagent.Agent, threadID string, render func(string) (string, error), interactive bool) error {
	reader := bufio.NewReader(os.Stdin)
	suspended := false

	for {
		if interactive {
			fmt.Print("> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF ends the session.
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		var state *domain.State
		if suspended {
			state, err = resumeFromInput(ctx, agent, threadID, input)
		} else {
			state, err = agent.StartOrContinue(ctx, threadID, input)
		}
		if err != nil {
			return err
		}

		suspended = state.Status == domain.StatusWaitingForHuman
		printState(state, render)
	}
}

// resumeFromInput maps chat input onto an intervention response: a bare
// action word, name=value parameter pairs, or free-form information.
func resumeFromInput(ctx context.Context, agent *billagent.Agent, threadID, input string) (*domain.State, error) {
	resp := domain.InterventionResponse{Action: domain.ActionProvideInfo, Note: input}

	switch strings.ToLower(input) {
	case domain.ActionApprove, domain.ActionReject, domain.ActionReplan,
		domain.ActionEnd, domain.ActionResolve, domain.ActionEscalate,
		domain.ActionGrant, domain.ActionSkipTool:
		resp = domain.InterventionResponse{Action: strings.ToLower(input)}
	default:
		if params := parseParams(input); len(params) > 0 {
			resp = domain.InterventionResponse{
				Action:     domain.ActionProvideParameters,
				Parameters: params,
			}
		}
	}
	return agent.Resume(ctx, threadID, resp)
}

// parseParams reads "name=value" pairs; any token without '=' makes the
// whole input free-form.
func parseParams(input string) map[string]any {
	params := make(map[string]any)
	for _, tok := range strings.Fields(input) {
		name, value, ok := strings.Cut(tok, "=")
		if !ok || name == "" {
			return nil
		}
		params[name] = value
	}
	return params
}

func printState(state *domain.State, render func(string) (string, error)) {
	var markdown string
	switch {
	case state.Status == domain.StatusWaitingForHuman:
		markdown = tui.FormatIntervention(state.InterventionRequest)
	case state.FinalOutput != "":
		markdown = state.FinalOutput
	default:
		markdown = fmt.Sprintf("(turn ended with status `%s`)", state.Status)
	}

	out, err := render(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Print(out)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("thread", "", "Thread ID to continue (default: a new thread)")
}
