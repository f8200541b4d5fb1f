package config

import "github.com/google/wire"

// ProviderSet provides the configuration and its sections.
var ProviderSet = wire.NewSet(
	NewConfig,
	NewServerConfig,
	NewDatabaseConfig,
	NewLLMConfig,
	NewExecutionConfig,
	NewUploadConfig,
	NewInboxConfig,
	NewSummaryConfig,
)
