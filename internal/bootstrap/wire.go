//go:build wireinject
// +build wireinject

//go:generate wire

package bootstrap

import (
	"context"

	"github.com/google/wire"

	"gitlab.com/timkado/api/openim-client/internal/application"
)

// InitializeApp builds the token broker with all its dependencies.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}

// InitializeClient builds a standalone OpenIM client from configuration.
func InitializeClient(ctx context.Context) (*application.Client, func(), error) {
	wire.Build(ClientSet)
	return nil, nil, nil
}
