package tabular

import "github.com/google/wire"

// ProviderSet is the tabular loader provider set.
var ProviderSet = wire.NewSet(NewLoader)
