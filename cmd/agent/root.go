package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	billagent "github.com/aaasjp/travel-bill-agent"
	"github.com/aaasjp/travel-bill-agent/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Travel reimbursement agent",
	Long:  `An LLM-driven assistant that files travel expense reimbursements through a resumable, human-in-the-loop workflow.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file")
}

// buildAgent loads configuration and assembles the agent for a command.
func buildAgent(cmd *cobra.Command) (*billagent.Agent, *config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}
	agent, err := billagent.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing agent: %w", err)
	}
	return agent, cfg, nil
}
