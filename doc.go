/*
Package billagent is an LLM-driven assistant for corporate travel
reimbursement, built as a resumable, status-driven workflow state machine.

Each user message runs one turn of the workflow: Analysis recognizes the
intent, Planning builds an ordered tool plan, Decision gates it against
the reimbursement policy and validates tool parameters, ToolExecution
runs the plan, and Reflection judges the outcome. A pure router maps
(stage, status) to the next stage; state is checkpointed after every
stage, so a turn survives a process restart at any point.

When the workflow needs a human — an out-of-policy amount, a missing
parameter, a failing tool — it suspends with a structured intervention
request instead of guessing. The caller later resumes the thread with an
answer, and routing continues from where it stopped.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		billagent "github.com/aaasjp/travel-bill-agent"
		"github.com/aaasjp/travel-bill-agent/internal/config"
		"github.com/aaasjp/travel-bill-agent/pkg/domain"
	)

	func main() {
		cfg, err := config.Load("")
		if err != nil {
			log.Fatal(err)
		}
		agent, err := billagent.New(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer agent.Close()

		ctx := context.Background()
		state, err := agent.StartOrContinue(ctx, "thread-1", "report a 6500 CNY flight expense")
		if err != nil {
			log.Fatal(err)
		}

		if state.Status == domain.StatusWaitingForHuman {
			// The agent is asking for something; answer and resume.
			fmt.Println("agent asks:", state.InterventionRequest.Reason)
			state, err = agent.Resume(ctx, "thread-1", domain.InterventionResponse{
				Action: domain.ActionApprove,
			})
			if err != nil {
				log.Fatal(err)
			}
		}
		fmt.Println(state.FinalOutput)
	}

Checkpoints live in memory by default and in Redis when configured, which
also enables a distributed per-thread lock for multi-instance deployments.
The HTTP and MCP adapters under pkg/adapters expose the same Turn API to
web clients and MCP hosts.
*/
package billagent
