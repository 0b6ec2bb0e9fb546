//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appevents "conceptgraph-backend/application/events"
	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/application/services"
	"conceptgraph-backend/infrastructure/config"
	"conceptgraph-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *observability.Metrics
	Runtime    *config.Watcher
	Dispatcher *appevents.Dispatcher
	Expander   ports.ConceptExpander
	Service    *services.ExplorationService
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideRuntimeWatcher,
	ProvideTranslator,
	ProvideDispatcher,
	ProvideExpander,
	ProvideExplorationService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
