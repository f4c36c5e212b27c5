package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/feedbackhq/feedbackd/api/responses"
	"github.com/feedbackhq/feedbackd/pkg/config"
	"github.com/feedbackhq/feedbackd/pkg/logger"
)

// Pinger is the health-check surface every wired dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Feedbackd-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				ready = false
				checks[name] = "down"
				if logg != nil {
					fctx := logg.WithField(ctx, "dependency", name)
					logg.Error(fctx, "readiness check failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		w.Header().Set("X-Feedbackd-Env", cfg.App.Env)
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
