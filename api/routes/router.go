package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feedbackhq/feedbackd/api/controllers"
	"github.com/feedbackhq/feedbackd/api/middleware"
	"github.com/feedbackhq/feedbackd/pkg/config"
	"github.com/feedbackhq/feedbackd/pkg/logger"
)

// RouterParams carries everything the intake HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Ingest   controllers.IngestService
	Registry *prometheus.Registry

	// Readiness pingers, keyed by dependency name. Nil entries are skipped.
	Pingers map[string]controllers.Pinger
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.Pingers))
	})
	r.Get("/healthz", controllers.HealthLive(p.Config))

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/projects/{projectID}", func(r chi.Router) {
		r.Use(middleware.BodyLimit(p.Config.Intake.MaxBodyBytes))
		r.Post("/feedback", controllers.SubmitFeedback(p.Ingest, p.Logger))
		r.Post("/user-reports", controllers.SubmitUserReport(p.Ingest, p.Logger))
	})

	return r
}
