package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"resona-backend/internal/handlers"
	"resona-backend/internal/middleware"
)

func New(
	analyzeHandler *handlers.AnalyzeHandler,
	jobHandler *handlers.JobHandler,
	rateLimitPerMin int,
	frontendURL string,
) (http.Handler, *middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Submission rate limiter, per client IP
	analyzeLimiter := middleware.NewRateLimiter(rateLimitPerMin, time.Minute)
	analyzeLimiter.OnLimited = handlers.Metrics.RateLimited.Inc

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", handlers.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(analyzeLimiter.Middleware)
			r.Post("/analyze", analyzeHandler.Analyze)
		})

		r.Route("/job/{id}", func(r chi.Router) {
			r.Get("/analysis", jobHandler.GetAnalysis)
			r.Delete("/", jobHandler.DeleteJob)
		})
	})

	return r, analyzeLimiter
}
