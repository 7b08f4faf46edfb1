// Package server exposes query execution, panel transforms and dashboard
// suggestions over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spektr-org/nexus/config"
	"github.com/spektr-org/nexus/datasource"
)

const defaultMaxBodyBytes = 10 << 20

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg      config.ServerConfig
	registry *datasource.Registry
	runner   *datasource.Runner
	router   chi.Router
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, registry *datasource.Registry) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		cfg:      cfg,
		registry: registry,
		runner:   datasource.NewRunner(registry),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an http.Server for the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))

		r.Post("/query", s.handleQuery)
		r.Post("/query/test", s.handleTestQuery)

		r.Get("/panels", s.handlePanels)
		r.Post("/transform/{panel}", s.handleTransform)
		r.Post("/suggest", s.handleSuggest)

		r.Route("/datasources", func(r chi.Router) {
			r.Get("/", s.handleListDatasources)
			r.Post("/test", s.handleTestConfig)
			r.Get("/{id}", s.handleGetDatasource)
			r.Post("/{id}/test", s.handleTestDatasource)
		})
	})

	r.NotFound(s.handleNotFound)
	return r
}
