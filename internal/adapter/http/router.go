package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mwbrandt/masseplan/internal/adapter/http/handler"
	"github.com/mwbrandt/masseplan/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EntryHandler  *handler.EntryHandler
	RuleHandler   *handler.RuleHandler
	EngineHandler *handler.EngineHandler
	HealthHandler *handler.HealthHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(log.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cases/{caseID}", func(r chi.Router) {
			// Ledger entries and review
			r.Get("/entries", cfg.EntryHandler.ListByCase)
			r.Get("/audit", cfg.EntryHandler.CaseAuditTrail)
			r.Get("/review/stats", cfg.EntryHandler.ReviewStats)

			// Classification rules and engine
			r.Route("/rules", func(r chi.Router) {
				r.Post("/", cfg.RuleHandler.Create)
				r.Get("/", cfg.RuleHandler.List)
			})
			r.Post("/classify", cfg.EngineHandler.Classify)
			r.Post("/reclassify", cfg.EngineHandler.Reclassify)
			r.Get("/classification/stats", cfg.EngineHandler.ClassificationStats)

			// Estate allocation
			r.Post("/allocate", cfg.EngineHandler.Allocate)

			// Insolvency effects
			r.Post("/effects/transfer", cfg.EngineHandler.TransferEffects)

			// Plan aggregation
			r.Get("/plans/{planID}/aggregation", cfg.EngineHandler.Aggregate)
		})

		r.Route("/entries/{id}", func(r chi.Router) {
			r.Get("/", cfg.EntryHandler.Get)
			r.Post("/confirm", cfg.EntryHandler.Confirm)
			r.Post("/adjust", cfg.EntryHandler.Adjust)
			r.Get("/audit", cfg.EntryHandler.AuditTrail)
		})

		r.Route("/rules/{id}", func(r chi.Router) {
			r.Patch("/", cfg.RuleHandler.Update)
			r.Delete("/", cfg.RuleHandler.Deactivate)
		})
	})

	return r
}
