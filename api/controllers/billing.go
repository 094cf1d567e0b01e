package controllers

import (
	"net/http"

	"github.com/rinksidehq/rinkside-backend/api/responses"
	"github.com/rinksidehq/rinkside-backend/internal/billing"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
)

// BillingOverview returns the org's subscription and recent invoices.
func BillingOverview(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.Overview(r.Context(), act.OrgID, act.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}

// BillingPortal opens a provider-hosted billing portal session.
func BillingPortal(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreatePortal(r.Context(), act.OrgID, act.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
