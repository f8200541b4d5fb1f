package http

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/interfaces/http/handler"
)

// ProviderSet is the HTTP provider set.
var ProviderSet = wire.NewSet(
	handler.ProviderSet,
	NewServer,
)
