package agent

import "github.com/google/wire"

// ProviderSet is the agent provider set.
var ProviderSet = wire.NewSet(NewTeam)
