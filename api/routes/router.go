package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rinksidehq/rinkside-backend/api/controllers"
	"github.com/rinksidehq/rinkside-backend/api/middleware"
	"github.com/rinksidehq/rinkside-backend/internal/auditlog"
	"github.com/rinksidehq/rinkside-backend/internal/billing"
	"github.com/rinksidehq/rinkside-backend/internal/members"
	"github.com/rinksidehq/rinkside-backend/internal/orgs"
	"github.com/rinksidehq/rinkside-backend/pkg/auth/session"
	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
	"github.com/rinksidehq/rinkside-backend/pkg/metrics"
	pkgredis "github.com/rinksidehq/rinkside-backend/pkg/redis"
)

// Deps carries everything the router needs wired in by cmd/api.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    pkgredis.Pinger
	RedisClient *pkgredis.Client
	Sessions    session.AccessSessionChecker
	Members     members.Service
	AuditLog    auditlog.Service
	Orgs        orgs.Service
	Billing     billing.Service
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(deps.DBPinger, deps.RedisClient)))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		var idemStore pkgredis.IdempotencyStore
		if deps.RedisClient != nil {
			idemStore = deps.RedisClient
		}

		r.Route("/coaches", func(r chi.Router) {
			r.Get("/", controllers.CoachList(deps.Members, logg))
			r.Post("/", controllers.CoachAdd(deps.Members, logg))
			r.Delete("/{memberId}", controllers.CoachRemove(deps.Members, logg))
			r.With(middleware.Idempotency(idemStore, logg)).
				Post("/import", controllers.CoachImport(deps.Members, cfg.Imports, logg))
			r.Get("/export", controllers.CoachExport(deps.Members, logg))
		})

		r.Get("/audit-log", controllers.AuditLogList(deps.AuditLog, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Get("/", controllers.BillingOverview(deps.Billing, logg))
			r.With(middleware.Idempotency(idemStore, logg)).
				Post("/portal", controllers.BillingPortal(deps.Billing, logg))
		})

		r.Get("/organization", controllers.OrganizationGet(deps.Orgs, logg))
		r.Post("/session/claim", controllers.SessionClaim(deps.Members, logg))
	})

	return r
}
