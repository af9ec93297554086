// Package mcp exposes the agent's Turn API as an MCP server, so MCP
// hosts (IDEs, chat frontends) can drive reimbursement threads.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	billagent "github.com/aaasjp/travel-bill-agent"
	"github.com/aaasjp/travel-bill-agent/pkg/domain"
	"github.com/aaasjp/travel-bill-agent/pkg/registry"
)

// Engine is the Turn API the MCP server fronts.
type Engine interface {
	StartOrContinue(ctx context.Context, threadID, userInput string) (*domain.State, error)
	Resume(ctx context.Context, threadID string, resp domain.InterventionResponse) (*domain.State, error)
	Inspect(ctx context.Context, threadID string) (*domain.State, error)
	Threads(ctx context.Context) ([]string, error)
}

// TurnResult is the structured output shared by the turn tools.
type TurnResult struct {
	ThreadID            string                      `json:"thread_id" jsonschema_description:"Thread the turn ran on"`
	Status              domain.Status               `json:"status" jsonschema_description:"Terminal or suspended status of the turn"`
	FinalOutput         string                      `json:"final_output,omitempty" jsonschema_description:"User-facing result of a completed turn"`
	InterventionRequest *domain.InterventionRequest `json:"intervention_request,omitempty" jsonschema_description:"Outstanding question when the turn is suspended"`
}

// Server wraps the agent engine and exposes it over MCP.
type Server struct {
	engine    Engine
	registry  *registry.Registry
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server over an engine and its tool registry.
func NewServer(engine Engine, reg *registry.Registry) *Server {
	s := &Server{
		engine:    engine,
		registry:  reg,
		mcpServer: server.NewMCPServer("travel-bill-agent", strings.TrimSpace(billagent.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a user message to a reimbursement thread and run it to the next suspension or completion."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread identifier; a new thread is created on first use")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithOutputSchema[TurnResult](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	resumeTool := mcp.NewTool("resume_thread",
		mcp.WithDescription("Answer a suspended thread's intervention request. Fails if the thread is not waiting for input."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread identifier")),
		mcp.WithString("action", mcp.Required(), mcp.Description("One of: approve, reject, modify, provide_info, provide_parameters, resolve, escalate, grant, replan, end, skip_tool")),
		mcp.WithString("parameters", mcp.Description("JSON object of provided parameter values (for provide_parameters)")),
		mcp.WithString("modifications", mcp.Description("JSON object of state edits (for modify)")),
		mcp.WithString("note", mcp.Description("Free-form note (for provide_info)")),
		mcp.WithOutputSchema[TurnResult](),
	)
	s.mcpServer.AddTool(resumeTool, mcp.NewStructuredToolHandler(s.handleResume))

	s.mcpServer.AddTool(mcp.NewTool("inspect_thread",
		mcp.WithDescription("Return the full persisted snapshot of a thread for debugging."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		threadID, err := request.RequireString("thread_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		state, err := s.engine.Inspect(ctx, threadID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(state)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_threads",
		mcp.WithDescription("List known thread IDs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Threads(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResult, error) {
	threadID, _ := args["thread_id"].(string)
	input, _ := args["input"].(string)
	if threadID == "" || input == "" {
		return TurnResult{}, fmt.Errorf("thread_id and input are required")
	}

	state, err := s.engine.StartOrContinue(ctx, threadID, input)
	if err != nil {
		return TurnResult{}, fmt.Errorf("turn failed: %w", err)
	}
	return turnResult(state), nil
}

func (s *Server) handleResume(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TurnResult, error) {
	threadID, _ := args["thread_id"].(string)
	action, _ := args["action"].(string)
	if threadID == "" || action == "" {
		return TurnResult{}, fmt.Errorf("thread_id and action are required")
	}

	resp := domain.InterventionResponse{Action: action}
	if paramsStr, ok := args["parameters"].(string); ok && paramsStr != "" {
		if err := json.Unmarshal([]byte(paramsStr), &resp.Parameters); err != nil {
			return TurnResult{}, fmt.Errorf("invalid parameters JSON: %w", err)
		}
	}
	if modsStr, ok := args["modifications"].(string); ok && modsStr != "" {
		if err := json.Unmarshal([]byte(modsStr), &resp.Modifications); err != nil {
			return TurnResult{}, fmt.Errorf("invalid modifications JSON: %w", err)
		}
	}
	if note, ok := args["note"].(string); ok {
		resp.Note = note
	}

	state, err := s.engine.Resume(ctx, threadID, resp)
	if err != nil {
		return TurnResult{}, fmt.Errorf("resume failed: %w", err)
	}
	return turnResult(state), nil
}

func turnResult(state *domain.State) TurnResult {
	return TurnResult{
		ThreadID:            state.ThreadID,
		Status:              state.Status,
		FinalOutput:         state.FinalOutput,
		InterventionRequest: state.InterventionRequest,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("billagent://tools", "Reimbursement Tool Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type toolInfo struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			Required    []string       `json:"required,omitempty"`
			Fields      map[string]any `json:"fields,omitempty"`
		}
		var catalog []toolInfo
		for _, tool := range s.registry.Tools() {
			info := toolInfo{
				Name:        tool.Name(),
				Description: tool.Description(),
			}
			if params := tool.Parameters(); params != nil {
				info.Required = params.Required()
				info.Fields = map[string]any{}
				for _, f := range params.Fields() {
					info.Fields[f.Name] = map[string]any{
						"type":        f.Type,
						"description": f.Description,
						"required":    f.Required,
					}
				}
			}
			catalog = append(catalog, info)
		}
		jsonBytes, err := json.Marshal(catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "billagent://tools",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
