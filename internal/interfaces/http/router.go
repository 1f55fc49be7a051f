// Package http assembles the HTTP route tree and server for the
// solar-potential selection API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/prometheus"
	"github.com/KlotzJesse/solar-potential/internal/interfaces/http/handlers"
	"github.com/KlotzJesse/solar-potential/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	BuildingHandler *handlers.BuildingHandler
	HealthHandler   *handlers.HealthHandler

	CORS    *middleware.CORSConfig
	Logging *middleware.LoggingConfig

	Logger  logging.Logger
	Metrics *prometheus.Metrics
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration. It wires global middleware, public health endpoints, and
// the API v1 resource group into a single http.Handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		logCfg := middleware.DefaultLoggingConfig()
		if cfg.Logging != nil {
			logCfg = *cfg.Logging
		}
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, logCfg))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerBuildingRoutes(api, cfg.BuildingHandler)
	})

	return r
}

// registerBuildingRoutes mounts selection endpoints under /buildings.
func registerBuildingRoutes(r chi.Router, h *handlers.BuildingHandler) {
	if h == nil {
		return
	}
	r.Route("/buildings", func(br chi.Router) {
		br.Get("/", h.List)
		br.Post("/", h.Create)
		br.Delete("/", h.Clear)
		br.Get("/summary", h.Summary)
		br.Get("/match", h.Match)

		br.Route("/{buildingID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Patch("/config", h.SetConfig)
			item.Patch("/nickname", h.SetNickname)
			item.Post("/toggle", h.ToggleActive)
		})
	})
}
