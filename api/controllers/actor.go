package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/api/middleware"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
)

// actor is the authenticated principal acting on an organization.
type actor struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   enums.MemberRole
	Email  string
}

func actorFromContext(ctx context.Context) (*actor, error) {
	rawUser := middleware.UserIDFromContext(ctx)
	if rawUser == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}

	rawOrg := middleware.OrgIDFromContext(ctx)
	if rawOrg == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing")
	}
	orgID, err := uuid.Parse(rawOrg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id")
	}

	return &actor{
		UserID: userID,
		OrgID:  orgID,
		Role:   enums.MemberRole(middleware.RoleFromContext(ctx)),
		Email:  middleware.EmailFromContext(ctx),
	}, nil
}
