//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/edachat/backend/internal/application"
	"github.com/edachat/backend/internal/infrastructure"
	"github.com/edachat/backend/internal/interfaces"
)

// InitializeAll builds the application. The returned cleanup closes the database.
func InitializeAll() (*App, func(), error) {
	wire.Build(
		infrastructure.ProviderSet,
		application.ProviderSet,
		interfaces.ProviderSet,
		NewApp,
	)
	return nil, nil, nil
}
