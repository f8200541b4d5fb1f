package handler

import "github.com/google/wire"

// ProviderSet is the handler provider set.
var ProviderSet = wire.NewSet(
	NewSessionHandler,
	NewEventsHandler,
)
