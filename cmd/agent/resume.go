package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <thread-id>",
	Short: "Answer a suspended thread's intervention request",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		threadID := args[0]
		action, _ := cmd.Flags().GetString("action")
		note, _ := cmd.Flags().GetString("note")
		paramFlags, _ := cmd.Flags().GetStringArray("param")

		resp := domain.InterventionResponse{Action: action, Note: note}
		for _, p := range paramFlags {
			name, value, ok := strings.Cut(p, "=")
			if !ok {
				fmt.Printf("invalid --param %q, expected name=value\n", p)
				os.Exit(1)
			}
			if resp.Parameters == nil {
				resp.Parameters = make(map[string]any)
			}
			resp.Parameters[name] = value
		}

		agent, _, err := buildAgent(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer agent.Close()

		state, err := agent.Resume(cmd.Context(), threadID, resp)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("status: %s\n", state.Status)
		if state.FinalOutput != "" {
			fmt.Println(state.FinalOutput)
		}
		if state.Status == domain.StatusWaitingForHuman && state.InterventionRequest != nil {
			fmt.Printf("still waiting: %s\n", state.InterventionRequest.Reason)
		}
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().String("action", domain.ActionApprove, "Response action (approve, reject, provide_parameters, ...)")
	resumeCmd.Flags().String("note", "", "Free-form note for provide_info responses")
	resumeCmd.Flags().StringArray("param", nil, "Provided parameter as name=value (repeatable)")
}
