package execution

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/infrastructure/sandbox"
)

// ProviderSet is the execution provider set.
var ProviderSet = wire.NewSet(
	NewCache,
	wire.Bind(new(Executor), new(*sandbox.Runner)),
)
