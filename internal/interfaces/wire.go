package interfaces

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/interfaces/http"
	"github.com/edachat/backend/internal/interfaces/mcp"
)

// ProviderSet is the interfaces provider set.
var ProviderSet = wire.NewSet(
	http.ProviderSet,
	mcp.ProviderSet,
)
