// Package di wires the application together.
package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appevents "conceptgraph-backend/application/events"
	"conceptgraph-backend/application/ports"
	"conceptgraph-backend/application/services"
	domainevents "conceptgraph-backend/domain/events"
	"conceptgraph-backend/infrastructure/acl"
	"conceptgraph-backend/infrastructure/config"
	"conceptgraph-backend/infrastructure/expansion"
	"conceptgraph-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideRegistry creates the Prometheus registry
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates and registers the engine metrics
func ProvideMetrics(registry *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(registry)
}

// ProvideRuntimeWatcher creates the hot-reloadable runtime limits watcher
func ProvideRuntimeWatcher(cfg *config.Config, logger *zap.Logger) (*config.Watcher, error) {
	return config.NewWatcher(cfg.RuntimeConfigPath, logger)
}

// ProvideTranslator creates the oracle response translator
func ProvideTranslator(logger *zap.Logger) *acl.ExpansionTranslator {
	return acl.NewExpansionTranslator(logger)
}

// ProvideDispatcher creates the domain event dispatcher with the standard
// listeners subscribed
func ProvideDispatcher(metrics *observability.Metrics, logger *zap.Logger) *appevents.Dispatcher {
	dispatcher := appevents.NewDispatcher(logger)
	dispatcher.Subscribe(newEventLogger(logger))
	dispatcher.Subscribe(newEventMetrics(metrics))
	return dispatcher
}

// ProvideExpander selects the concept expansion oracle client
func ProvideExpander(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (ports.ConceptExpander, error) {
	var inner ports.ConceptExpander
	switch cfg.OracleProvider {
	case config.ProviderHTTP:
		inner = expansion.NewHTTPClient(cfg.OracleBaseURL, cfg.OracleTimeout, logger)
	case config.ProviderOpenAI:
		inner = expansion.NewOpenAIExpander(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.OracleProvider)
	}
	return &instrumentedExpander{inner: inner, metrics: metrics}, nil
}

// ProvideExplorationService creates the session host
func ProvideExplorationService(
	expander ports.ConceptExpander,
	translator *acl.ExpansionTranslator,
	dispatcher *appevents.Dispatcher,
	runtime *config.Watcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.ExplorationService {
	return services.NewExplorationService(expander, translator, dispatcher, runtime, metrics, logger)
}

// instrumentedExpander counts oracle calls by outcome
type instrumentedExpander struct {
	inner   ports.ConceptExpander
	metrics *observability.Metrics
}

func (e *instrumentedExpander) Expand(ctx context.Context, req ports.ExpansionRequest) (*ports.ExpansionResponse, error) {
	resp, err := e.inner.Expand(ctx, req)
	if err != nil {
		e.metrics.OracleRequests.WithLabelValues("failure").Inc()
		return nil, err
	}
	e.metrics.OracleRequests.WithLabelValues("success").Inc()
	return resp, nil
}

// newEventLogger logs every domain event at debug level
func newEventLogger(logger *zap.Logger) appevents.Listener {
	return appevents.ListenerFunc(func(ctx context.Context, event domainevents.DomainEvent) {
		logger.Debug("domain event",
			zap.String("type", event.GetEventType()),
			zap.String("sessionID", event.GetAggregateID()),
		)
	})
}

// newEventMetrics keeps counters derived from the event stream
func newEventMetrics(metrics *observability.Metrics) appevents.Listener {
	return appevents.ListenerFunc(func(ctx context.Context, event domainevents.DomainEvent) {
		if merged, ok := event.(domainevents.EdgesMerged); ok {
			if n := len(merged.DroppedIDs); n > 0 {
				metrics.DroppedEdges.Add(float64(n))
			}
		}
	})
}
