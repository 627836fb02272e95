//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"rootie/infrastructure/config"
	"rootie/infrastructure/llm"
	"rootie/infrastructure/persistence/abstractions"
	"rootie/interfaces/http/rest"
)

// Container holds all backend server dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repository abstractions.Repository
	Provider   llm.Provider
	Router     *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideRepository,
	ProvideProvider,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
