//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/code-pilot/internal/app"
)

// InitializeServices builds the review stack without the HTTP server.
func InitializeServices(ctx context.Context, path ConfigPath) (*app.Services, func(), error) {
	wire.Build(ServicesSet)
	return nil, nil, nil
}

// InitializeApp builds the HTTP server and everything behind it.
func InitializeApp(ctx context.Context, path ConfigPath) (*app.App, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
