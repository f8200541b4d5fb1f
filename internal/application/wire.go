package application

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/application/agent"
	"github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/application/execution"
	"github.com/edachat/backend/internal/application/suggestion"
)

// ProviderSet is the application provider set.
var ProviderSet = wire.NewSet(
	agent.ProviderSet,
	execution.ProviderSet,
	suggestion.ProviderSet,
	conversation.ProviderSet,
)
