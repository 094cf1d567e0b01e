package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
	"github.com/rinksidehq/rinkside-backend/pkg/pagination"
)

type memberRepository interface {
	ListRecent(ctx context.Context, orgID uuid.UUID, limit int, before *time.Time) ([]models.Member, error)
	InviterEmails(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Page is one page of synthesized audit events.
type Page struct {
	Events []Event `json:"events"`
	// NextCursor is the timestamp of the last event, used as an exclusive
	// created_at bound on the next raw fetch.
	NextCursor *string `json:"next_cursor"`
	// HasMore reflects whether the raw member fetch was full, not whether
	// more synthesized events exist. Members contribute a variable number of
	// events, so this can under- or over-report; accepted imprecision.
	HasMore bool `json:"has_more"`
}

// Service exposes the audit log read path.
type Service interface {
	ListEvents(ctx context.Context, orgID uuid.UUID, pageSize int, cursor string) (*Page, error)
}

type service struct {
	repo            memberRepository
	overfetchFactor int
}

// NewService builds an audit log service over the member repository.
func NewService(repo memberRepository, cfg config.ImportConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	factor := cfg.OverfetchFactor
	if factor < 1 {
		factor = 1
	}
	return &service{repo: repo, overfetchFactor: factor}, nil
}

func (s *service) ListEvents(ctx context.Context, orgID uuid.UUID, pageSize int, cursor string) (*Page, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	limit := pagination.NormalizeLimit(pageSize)

	var before *time.Time
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if parsed != nil {
		before = &parsed.Before
	}

	// each member can yield up to three events, so raw rows are over-fetched
	rawLimit := limit * s.overfetchFactor
	members, err := s.repo.ListRecent(ctx, orgID, rawLimit, before)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch members for audit log")
	}

	inviterIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{})
	for i := range members {
		if members[i].InvitedBy == nil {
			continue
		}
		if _, ok := seen[*members[i].InvitedBy]; ok {
			continue
		}
		seen[*members[i].InvitedBy] = struct{}{}
		inviterIDs = append(inviterIDs, *members[i].InvitedBy)
	}

	inviterEmails, err := s.repo.InviterEmails(ctx, orgID, inviterIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve inviter emails")
	}

	events := make([]Event, 0, len(members))
	for i := range members {
		events = append(events, Synthesize(&members[i], inviterEmails)...)
	}
	SortEvents(events)

	if len(events) > limit {
		events = events[:limit]
	}

	page := &Page{
		Events:  events,
		HasMore: len(members) == rawLimit,
	}
	if page.HasMore && len(events) > 0 {
		encoded := pagination.EncodeCursor(pagination.Cursor{Before: events[len(events)-1].Timestamp})
		page.NextCursor = &encoded
	}
	return page, nil
}
