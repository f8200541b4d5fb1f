package infrastructure

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/llm"
	"github.com/edachat/backend/internal/infrastructure/sandbox"
	"github.com/edachat/backend/internal/infrastructure/storage"
	"github.com/edachat/backend/internal/infrastructure/tabular"
	"github.com/edachat/backend/internal/infrastructure/tokenizer"
	"github.com/edachat/backend/internal/infrastructure/watcher"
	"github.com/edachat/backend/internal/infrastructure/websocket"
)

// ProviderSet is the infrastructure provider set.
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	llm.ProviderSet,
	sandbox.ProviderSet,
	tabular.ProviderSet,
	tokenizer.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
)
