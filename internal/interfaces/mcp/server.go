package mcp

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appConversation "github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/infrastructure/log"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// MCPServer exposes the analysis sessions as MCP tools over SSE.
type MCPServer struct {
	server  *mcp.Server
	handler http.Handler
	svc     *appConversation.Service
	logger  *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(svc *appConversation.Service) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "edachat",
			Version: Version,
		},
		nil,
	)

	s := &MCPServer{
		server: server,
		svc:    svc,
		logger: log.NewModuleLogger("mcp", "server"),
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List the open analysis sessions. No parameters. Returns: sessions with their id, user, dataset name and shape.",
	}, s.listSessionsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "ask_question",
		Description: `Ask a question about the dataset of a session. The question is routed to the data analyst, visualization, consultant or code generator agent.
Parameters:
- session_id (string, required): Session ID
- question (string, required): Question in natural language, usually Portuguese

Returns: the agent chosen, the answer text, generated code (if any), whether a chart was produced, and three follow-up suggestions.`,
	}, s.askQuestionTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dataset_summary",
		Description: "Get the bounded preview of a session's dataset as sent to the agents, plus its info. Parameters: session_id (string, required). Returns: summary text, columns, dtypes, missing counts and duplicated rows.",
	}, s.getDatasetSummaryTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_messages",
		Description: "List the transcript of a session. Parameters: session_id (string, required); limit (int, optional) - only the last N messages. Returns: messages with role, content, agent and code.",
	}, s.listMessagesTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_suggestions",
		Description: "Suggest three follow-up questions for a session. Parameters: session_id (string, required). Returns: suggestions.",
	}, s.getSuggestionsTool)

	s.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			return server
		},
		nil,
	)
	return s
}

// GetHandler returns the SSE handler mounted by the HTTP server.
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Stop is a no-op: the HTTP server owns the SSE connections.
func (s *MCPServer) Stop() error {
	return nil
}
