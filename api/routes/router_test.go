package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rinksidehq/rinkside-backend/internal/auditlog"
	"github.com/rinksidehq/rinkside-backend/internal/billing"
	"github.com/rinksidehq/rinkside-backend/internal/members"
	"github.com/rinksidehq/rinkside-backend/internal/orgs"
	pkgauth "github.com/rinksidehq/rinkside-backend/pkg/auth"
	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
	"github.com/rinksidehq/rinkside-backend/pkg/metrics"
)

type routeMemberService struct{}

func (routeMemberService) List(context.Context, uuid.UUID, int, int, string) (*members.ListResult, error) {
	return &members.ListResult{Members: []members.MemberDTO{}}, nil
}

func (routeMemberService) Add(context.Context, uuid.UUID, uuid.UUID, string) (*members.MemberDTO, error) {
	return &members.MemberDTO{}, nil
}

func (routeMemberService) Remove(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return nil
}

func (routeMemberService) ImportEmails(context.Context, uuid.UUID, uuid.UUID, []string) (*members.ImportReport, error) {
	return &members.ImportReport{}, nil
}

func (routeMemberService) ExportCSV(context.Context, uuid.UUID) (*members.Export, error) {
	return &members.Export{Filename: "coaches-export.csv"}, nil
}

func (routeMemberService) ClaimInvites(context.Context, uuid.UUID, string) (*members.ClaimResult, error) {
	return &members.ClaimResult{}, nil
}

type routeAuditService struct{}

func (routeAuditService) ListEvents(context.Context, uuid.UUID, int, string) (*auditlog.Page, error) {
	return &auditlog.Page{Events: []auditlog.Event{}}, nil
}

type routeOrgService struct{}

func (routeOrgService) Get(context.Context, uuid.UUID) (*orgs.OrganizationDTO, error) {
	return &orgs.OrganizationDTO{}, nil
}

func (routeOrgService) GetModel(context.Context, uuid.UUID) (*models.Organization, error) {
	return &models.Organization{}, nil
}

type routeBillingService struct{}

func (routeBillingService) Overview(context.Context, uuid.UUID, enums.MemberRole) (*billing.Overview, error) {
	return &billing.Overview{}, nil
}

func (routeBillingService) CreatePortal(context.Context, uuid.UUID, enums.MemberRole) (*billing.PortalSession, error) {
	return &billing.PortalSession{URL: "https://billing.stripe.com/session/test"}, nil
}

type routeSessionChecker struct{}

func (routeSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

func routerConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "rinkside-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := routerConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	registry := prometheus.NewRegistry()

	handler := NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		Sessions:    routeSessionChecker{},
		Members:     routeMemberService{},
		AuditLog:    routeAuditService{},
		Orgs:        routeOrgService{},
		Billing:     routeBillingService{},
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Registry:    registry,
	})
	return handler, cfg
}

func bearerToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	orgID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		Email:       "admin@rink.com",
		ActiveOrgID: &orgID,
		Role:        enums.MemberRoleAdmin,
		JTI:         uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Rinkside-Env"); got != "test" {
		t.Fatalf("env header not set, got %q", got)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAPIRoutesRequireAuth(t *testing.T) {
	handler, _ := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/coaches"},
		{http.MethodGet, "/api/v1/audit-log"},
		{http.MethodGet, "/api/v1/billing"},
		{http.MethodGet, "/api/v1/organization"},
		{http.MethodPost, "/api/v1/session/claim"},
	}
	for _, route := range paths {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestAuthedRequestReachesHandlers(t *testing.T) {
	handler, cfg := newTestRouter(t)
	token := bearerToken(t, cfg)

	for _, path := range []string{"/api/v1/coaches", "/api/v1/organization", "/api/v1/billing", "/api/v1/audit-log"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d body=%s", path, w.Code, w.Body.String())
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "req-abc-123" {
		t.Fatalf("request id not echoed, got %q", got)
	}
}
