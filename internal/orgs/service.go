package orgs

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rinksidehq/rinkside-backend/pkg/bounded"
	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
)

const recentJoinWindow = 7 * 24 * time.Hour

type orgRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type statsRepository interface {
	CountActive(ctx context.Context, orgID uuid.UUID) (int64, error)
	CountActiveByRole(ctx context.Context, orgID uuid.UUID, role enums.MemberRole) (int64, error)
	CountJoinedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)
	CountPendingInvites(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// Service exposes the organization profile read path.
type Service interface {
	Get(ctx context.Context, orgID uuid.UUID) (*OrganizationDTO, error)
	GetModel(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
}

type service struct {
	repo      orgRepository
	stats     statsRepository
	lookupCfg config.LookupConfig
	now       func() time.Time
}

// NewService builds an organization service with the provided repositories.
func NewService(repo orgRepository, stats statsRepository, lookupCfg config.LookupConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if stats == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	return &service{
		repo:      repo,
		stats:     stats,
		lookupCfg: lookupCfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get loads the organization profile with membership statistics. The lookups
// run under the configured deadline; a slow store surfaces as retryable.
func (s *service) Get(ctx context.Context, orgID uuid.UUID) (*OrganizationDTO, error) {
	org, err := s.GetModel(ctx, orgID)
	if err != nil {
		return nil, err
	}

	stats, err := bounded.Lookup(ctx, s.lookupCfg.Timeout, "organization stats", func(ctx context.Context) (Stats, error) {
		return s.collectStats(ctx, orgID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect organization stats")
	}

	return FromModel(org, stats), nil
}

// GetModel loads the raw organization row under the lookup deadline.
func (s *service) GetModel(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	org, err := bounded.Lookup(ctx, s.lookupCfg.Timeout, "organization lookup", func(ctx context.Context) (*models.Organization, error) {
		return s.repo.FindByID(ctx, orgID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	return org, nil
}

func (s *service) collectStats(ctx context.Context, orgID uuid.UUID) (Stats, error) {
	var stats Stats
	var err error

	if stats.MemberCount, err = s.stats.CountActive(ctx, orgID); err != nil {
		return stats, err
	}
	if stats.CoachCount, err = s.stats.CountActiveByRole(ctx, orgID, enums.MemberRoleCoach); err != nil {
		return stats, err
	}
	if stats.RecentlyJoined, err = s.stats.CountJoinedSince(ctx, orgID, s.now().Add(-recentJoinWindow)); err != nil {
		return stats, err
	}
	if stats.PendingInvites, err = s.stats.CountPendingInvites(ctx, orgID); err != nil {
		return stats, err
	}
	return stats, nil
}
