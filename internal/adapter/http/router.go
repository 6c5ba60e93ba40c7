package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
)

type RouterConfig struct {
	Sessions *SessionHandler
	Tracking *TrackingHandler
	Logger   logger.Logger
	// RateLimit is the per-IP request budget per minute on mutating
	// routes. Zero disables limiting.
	RateLimit int
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	// One limiter shared by every mutating route.
	var limiter func(http.Handler) http.Handler
	if cfg.RateLimit > 0 {
		limiter = RateLimit(cfg.RateLimit, time.Minute)
	}
	limited := func(r chi.Router) chi.Router {
		if limiter != nil {
			return r.With(limiter)
		}
		return r
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", cfg.Sessions.List)
		limited(r).Post("/", cfg.Sessions.Create)
		limited(r).Post("/seed", cfg.Sessions.Seed)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.Sessions.Get)
			r.Get("/allowed", cfg.Sessions.Allowed)
			r.Get("/status", cfg.Tracking.Status)
			r.Get("/history", cfg.Tracking.History)
			limited(r).Post("/actions", cfg.Sessions.ApplyAction)
			limited(r).Post("/actions/queue", cfg.Sessions.QueueAction)
		})
	})

	r.Get("/audit", cfg.Tracking.Audit)
	r.Get("/audit/export", cfg.Tracking.Export)
	r.Get("/staff", cfg.Tracking.ListStaff)
	r.Get("/staff/{id}", cfg.Tracking.GetStaff)

	return r
}
