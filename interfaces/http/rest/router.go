// Package rest wires the HTTP surface of the exploration engine.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"conceptgraph-backend/application/services"
	"conceptgraph-backend/infrastructure/config"
	"conceptgraph-backend/interfaces/http/rest/handlers"
	"conceptgraph-backend/interfaces/http/rest/middleware"
	ws "conceptgraph-backend/interfaces/websocket"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	service  *services.ExplorationService
	wsServer *ws.Server
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	service *services.ExplorationService,
	wsServer *ws.Server,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		service:  service,
		wsServer: wsServer,
		registry: registry,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration for the rendering surface
	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(rt.service, rt.logger)
			r.Post("/", sessionHandler.CreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				graphHandler := handlers.NewGraphHandler(rt.service, rt.logger)

				r.Delete("/", sessionHandler.DeleteSession)
				r.Post("/reset", sessionHandler.ResetSession)

				r.Get("/graph", graphHandler.GetGraph)
				r.Put("/depth", graphHandler.SetDepth)
				r.Put("/selection", graphHandler.UpdateSelection)
				r.Get("/selection", graphHandler.GetSelection)
				r.Post("/nodes/{nodeID}/expand", graphHandler.ExpandNode)
			})
		})
	})

	// Projection push channel
	if rt.wsServer != nil {
		router.Get("/ws/sessions/{sessionID}", rt.wsServer.HandleSubscribe)
	}

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests. The engine holds all
// state in memory, so ready is the same as alive.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
