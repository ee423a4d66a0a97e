// Package web wires the HTTP routes.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agendabr/agenda/internal/contatos"
	httpmiddleware "github.com/agendabr/agenda/internal/http/middleware"
	"github.com/agendabr/agenda/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Contatos       *contatos.Handler
	MetricsHandler http.Handler

	// Rate limiting for form submissions; disabled when RatePerSecond <= 0.
	RatePerSecond float64
	RateBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/", cfg.Contatos.Index)
	r.Route("/contato", func(r chi.Router) {
		r.Get("/", cfg.Contatos.New)
		r.Get("/index/{id}", cfg.Contatos.Show)
		r.Get("/delete/{id}", cfg.Contatos.Delete)

		r.Group(func(r chi.Router) {
			if cfg.RatePerSecond > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.RatePerSecond, cfg.RateBurst))
			}
			r.Post("/register", cfg.Contatos.Create)
			r.Post("/edit/{id}", cfg.Contatos.Update)
		})
	})

	return r
}
