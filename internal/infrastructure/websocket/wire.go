package websocket

import "github.com/google/wire"

// ProviderSet is the websocket provider set.
var ProviderSet = wire.NewSet(NewHub)
