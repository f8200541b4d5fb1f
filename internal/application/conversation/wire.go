package conversation

import "github.com/google/wire"

// ProviderSet is the conversation provider set.
var ProviderSet = wire.NewSet(NewService)
