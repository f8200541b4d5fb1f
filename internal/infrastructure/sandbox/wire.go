package sandbox

import "github.com/google/wire"

// ProviderSet is the sandbox provider set.
var ProviderSet = wire.NewSet(NewRunner)
