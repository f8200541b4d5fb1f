package interfaces

import (
	"github.com/edachat/backend/internal/interfaces/http"
	"github.com/edachat/backend/internal/interfaces/mcp"
)

// HTTPServer is the HTTP server type.
type HTTPServer = http.HTTPServer

// MCPServer is the MCP server type.
type MCPServer = mcp.MCPServer
