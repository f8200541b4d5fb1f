package mcp

import "github.com/google/wire"

// ProviderSet is the MCP provider set.
var ProviderSet = wire.NewSet(NewServer)
