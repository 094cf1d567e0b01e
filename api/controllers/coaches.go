package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/api/responses"
	"github.com/rinksidehq/rinkside-backend/api/validators"
	"github.com/rinksidehq/rinkside-backend/internal/members"
	"github.com/rinksidehq/rinkside-backend/pkg/config"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
	"github.com/rinksidehq/rinkside-backend/pkg/pagination"
)

// CoachList returns one page of the organization's coaches.
func CoachList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		search := strings.TrimSpace(r.URL.Query().Get("search"))

		result, err := svc.List(r.Context(), act.OrgID, page, pageSize, search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type coachAddRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CoachAdd invites a single coach by email.
func CoachAdd(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload coachAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Add(r.Context(), act.OrgID, act.UserID, payload.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// CoachRemove soft-deletes a member from the organization.
func CoachRemove(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := uuid.Parse(chi.URLParam(r, "memberId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member id"))
			return
		}

		if err := svc.Remove(r.Context(), act.OrgID, act.UserID, memberID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Member removed successfully"})
	}
}

type coachImportRequest struct {
	Emails []string `json:"emails,omitempty"`
	CSV    string   `json:"csv,omitempty"`
}

// CoachImport runs the bulk invite pipeline from a list of emails or raw CSV text.
func CoachImport(svc members.Service, importCfg config.ImportConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload coachImportRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		candidates := payload.Emails
		if len(candidates) == 0 && payload.CSV != "" {
			candidates, err = members.ParseCSV(strings.NewReader(payload.CSV), importCfg.MaxCSVBytes)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if len(candidates) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no email addresses found in input"))
			return
		}

		report, err := svc.ImportEmails(r.Context(), act.OrgID, act.UserID, candidates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// CoachExport streams the active roster as a CSV attachment.
func CoachExport(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		export, err := svc.ExportCSV(r.Context(), act.OrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(export.Content)
	}
}
