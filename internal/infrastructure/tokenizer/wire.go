package tokenizer

import "github.com/google/wire"

// ProviderSet is the tokenizer provider set.
var ProviderSet = wire.NewSet(NewEstimator)
