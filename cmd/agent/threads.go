package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var threadsCmd = &cobra.Command{
	Use:   "threads [thread-id]",
	Short: "List known threads or dump one thread's snapshot",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		agent, _, err := buildAgent(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer agent.Close()

		if len(args) == 1 {
			state, err := agent.Inspect(cmd.Context(), args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			out, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		ids, err := agent.Threads(cmd.Context())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("no threads")
			return
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
}
