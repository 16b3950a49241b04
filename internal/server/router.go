package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/session"
)

// NewRouter wires the middleware stack, the calculator endpoints for sess,
// health and Prometheus metrics.
func NewRouter(sess *session.Session) (http.Handler, error) {
	calc, err := calculator.NewHandler(sess)
	if err != nil {
		return nil, err
	}
	registry := observability.NewRegistry(calculator.HistoryCollector(sess))

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler(registry))

	calc.RegisterRoutes(r)

	return r, nil
}
