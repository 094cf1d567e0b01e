package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/api/middleware"
	"github.com/rinksidehq/rinkside-backend/api/responses"
	"github.com/rinksidehq/rinkside-backend/internal/members"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
)

// SessionClaim stamps pending invites for the authenticated user's email.
// Runs on first sign-in; repeating it is a no-op.
func SessionClaim(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawUser := middleware.UserIDFromContext(r.Context())
		if rawUser == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		userID, err := uuid.Parse(rawUser)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		email := middleware.EmailFromContext(r.Context())
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token has no email claim"))
			return
		}

		result, err := svc.ClaimInvites(r.Context(), userID, email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
