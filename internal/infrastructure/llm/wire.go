package llm

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/domain/agent"
)

// ProviderSet is the LLM provider set.
var ProviderSet = wire.NewSet(
	NewClient,
	wire.Bind(new(agent.Generator), new(*Client)),
)
