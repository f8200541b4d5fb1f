package suggestion

import "github.com/google/wire"

// ProviderSet is the suggestion provider set.
var ProviderSet = wire.NewSet(NewGenerator)
