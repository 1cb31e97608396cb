package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"agentia/backend/internal/execution"
	"agentia/backend/internal/marketplace"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the marketplace over the Model Context Protocol so AI agents
// can discover and execute services the same way the REST API allows humans to.
type Server struct {
	mcpServer   *server.MCPServer
	marketplace *marketplace.Service
	executions  *execution.Service
	owner       string
}

// NewServer builds the MCP server and registers its tools. Tool calls run
// under a single configured owner identity since MCP clients don't carry the
// interactive OAuth session the REST routes use.
func NewServer(mkt *marketplace.Service, exec *execution.Service, owner string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Agentia Marketplace",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		marketplace: mkt,
		executions:  exec,
		owner:       owner,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_services",
			mcp.WithDescription("List the AI services published on the marketplace"),
		),
		s.handleListServices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"execute_service",
			mcp.WithDescription("Execute a marketplace service through the four-stage workflow"),
			mcp.WithString("service_id", mcp.Required(), mcp.Description("The ID of the service to execute")),
			mcp.WithString("input", mcp.Required(), mcp.Description("JSON object with the service input fields")),
			mcp.WithString("provider", mcp.Description("Optional AI provider override")),
		),
		s.handleExecuteService,
	)
}

func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services, err := s.marketplace.ListServices(ctx, s.owner)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list services: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(services)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleExecuteService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	serviceID, ok := args["service_id"].(string)
	if !ok || serviceID == "" {
		return mcp.NewToolResultError("Missing required parameter: service_id"), nil
	}

	rawInput, ok := args["input"].(string)
	if !ok || rawInput == "" {
		return mcp.NewToolResultError("Missing required parameter: input"), nil
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(rawInput), &input); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid input JSON: %v", err)), nil
	}

	provider, _ := args["provider"].(string)

	resp, err := s.executions.RunWorkflow(ctx, serviceID, input, provider)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to execute service: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(resp)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// SSE server handles /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
