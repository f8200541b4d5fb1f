package storage

import "github.com/google/wire"

// ProviderSet is the storage provider set.
var ProviderSet = wire.NewSet(
	ProvideDB,
	ProvideSessionStore,
)
