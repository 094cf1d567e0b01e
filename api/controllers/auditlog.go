package controllers

import (
	"net/http"
	"strings"

	"github.com/rinksidehq/rinkside-backend/api/responses"
	"github.com/rinksidehq/rinkside-backend/api/validators"
	"github.com/rinksidehq/rinkside-backend/internal/auditlog"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
	"github.com/rinksidehq/rinkside-backend/pkg/pagination"
)

// AuditLogList returns one page of synthesized audit events for the org.
func AuditLogList(svc auditlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		page, err := svc.ListEvents(r.Context(), act.OrgID, pageSize, cursor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
