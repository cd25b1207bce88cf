//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"mymemo-client/internal/config"
	"mymemo-client/internal/editsession"
	"mymemo-client/internal/gateway"
	"mymemo-client/internal/memos"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideCredentialStore,
	ProvideGateway,
	wire.Bind(new(memos.API), new(*gateway.Gateway)),
	ProvideCache,
	ProvideMemoService,
	ProvideViewOptions,
	ProvideSession,
	ProvideProjector,
	ProvideListController,
	ProvideEditController,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(
	ctx context.Context,
	cfg *config.Config,
	confirmer editsession.Confirmer,
	navigator editsession.Navigator,
) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
