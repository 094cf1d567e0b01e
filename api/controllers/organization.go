package controllers

import (
	"net/http"

	"github.com/rinksidehq/rinkside-backend/api/responses"
	"github.com/rinksidehq/rinkside-backend/internal/orgs"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
)

// OrganizationGet returns the active org's profile with membership stats.
func OrganizationGet(svc orgs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), act.OrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
