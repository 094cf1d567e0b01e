package controllers

import (
	"context"
	"net/http"

	"github.com/rinksidehq/rinkside-backend/api/responses"
	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
)

const envHeader = "X-Rinkside-Env"

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. A failed dependency flips the status
// to degraded with a 503 so orchestrators stop routing traffic here.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", name)
					logg.Error(ctx, "readiness check failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}

// ReadinessDeps assembles the named dependency pingers for HealthReady.
func ReadinessDeps(dbP, redisP pinger) map[string]pinger {
	return map[string]pinger{
		"postgres": dbP,
		"redis":    redisP,
	}
}
