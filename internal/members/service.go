package members

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/db"
	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/emails"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
	"github.com/rinksidehq/rinkside-backend/pkg/logger"
	"github.com/rinksidehq/rinkside-backend/pkg/metrics"
	"github.com/rinksidehq/rinkside-backend/pkg/pagination"
)

type memberRepository interface {
	ListPage(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]models.Member, int64, error)
	ListActive(ctx context.Context, orgID uuid.UUID) ([]models.Member, error)
	FindByID(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error)
	FindActiveByEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Member, error)
	ExistingActiveEmails(ctx context.Context, orgID uuid.UUID, emails []string) (map[string]struct{}, error)
	SoftDelete(ctx context.Context, orgID, memberID uuid.UUID, now time.Time) error
	ClaimInvites(ctx context.Context, userID uuid.UUID, email string, now time.Time) (int64, error)
	CreateInvitesLocked(ctx context.Context, orgID uuid.UUID, invites []models.Member, guard SeatGuard) (*InviteBatchResult, error)
}

// Service exposes coach management operations.
type Service interface {
	List(ctx context.Context, orgID uuid.UUID, page, pageSize int, search string) (*ListResult, error)
	Add(ctx context.Context, orgID, actorID uuid.UUID, email string) (*MemberDTO, error)
	Remove(ctx context.Context, orgID, actorID, memberID uuid.UUID) error
	ImportEmails(ctx context.Context, orgID, actorID uuid.UUID, candidates []string) (*ImportReport, error)
	ExportCSV(ctx context.Context, orgID uuid.UUID) (*Export, error)
	ClaimInvites(ctx context.Context, userID uuid.UUID, email string) (*ClaimResult, error)
}

type service struct {
	repo          memberRepository
	importCfg     config.ImportConfig
	importMetrics *metrics.ImportMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds a member service with the provided repository.
func NewService(repo memberRepository, importCfg config.ImportConfig, importMetrics *metrics.ImportMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	return &service{
		repo:          repo,
		importCfg:     importCfg,
		importMetrics: importMetrics,
		logg:          logg,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, page, pageSize int, search string) (*ListResult, error) {
	limit := pagination.NormalizeLimit(pageSize)
	offset := pagination.Offset(page, limit)

	rows, total, err := s.repo.ListPage(ctx, orgID, search, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}

	result := &ListResult{
		Members:    make([]MemberDTO, 0, len(rows)),
		TotalCount: total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	for i := range rows {
		result.Members = append(result.Members, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Add(ctx context.Context, orgID, actorID uuid.UUID, email string) (*MemberDTO, error) {
	normalized, ok := emails.ValidNormalized(email)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}

	existing, err := s.repo.FindActiveByEmail(ctx, orgID, normalized)
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing member")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "this email is already a member of your organization")
	}

	now := s.now()
	invite := models.Member{
		Email:     &normalized,
		Role:      enums.MemberRoleCoach,
		InvitedAt: &now,
		InvitedBy: &actorID,
	}

	res, err := s.repo.CreateInvitesLocked(ctx, orgID, []models.Member{invite}, func(org *models.Organization, activeCount int64) error {
		decision := CheckSeatLimit(int(activeCount), 1, org.SeatLimit)
		if !decision.Allowed {
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, fmt.Sprintf(
				"your organization has reached its seat limit of %d members, upgrade your plan to add more coaches",
				*org.SeatLimit,
			)).WithDetails(map[string]any{"available_seats": decision.AvailableSeats})
		}
		return nil
	})
	if err != nil {
		return nil, mapBatchError(err, "add coach")
	}
	if len(res.Inserted) == 0 {
		if len(res.Failures) > 0 && db.IsUniqueViolation(res.Failures[0].Err, "idx_org_members_email_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "this email is already a member of your organization")
		}
		var cause error
		if len(res.Failures) > 0 {
			cause = res.Failures[0].Err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "add coach")
	}
	return FromModel(&res.Inserted[0]), nil
}

func (s *service) Remove(ctx context.Context, orgID, actorID, memberID uuid.UUID) error {
	member, err := s.repo.FindByID(ctx, orgID, memberID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	if member.DeletedAt != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	if member.Role == enums.MemberRoleOwner {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot remove organization owner")
	}

	if err := s.repo.SoftDelete(ctx, orgID, memberID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove member")
	}
	return nil
}

func (s *service) ImportEmails(ctx context.Context, orgID, actorID uuid.UUID, candidates []string) (*ImportReport, error) {
	classification := Classify(candidates)

	if classification.TotalScanned == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no email addresses found in input")
	}
	if len(classification.ValidUnique) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid email addresses provided").WithDetails(map[string]any{
			"invalid":            len(classification.Invalid),
			"duplicates_in_file": len(classification.DuplicatesInFile),
			"total_scanned":      classification.TotalScanned,
		})
	}

	existing, err := s.repo.ExistingActiveEmails(ctx, orgID, classification.ValidUnique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing members")
	}

	newEmails := make([]string, 0, len(classification.ValidUnique))
	alreadyMembers := make([]string, 0)
	for _, email := range classification.ValidUnique {
		if _, dup := existing[email]; dup {
			alreadyMembers = append(alreadyMembers, email)
			continue
		}
		newEmails = append(newEmails, email)
	}

	report := &ImportReport{
		Result: ImportOutcome{
			Errors:     []string{},
			Duplicates: alreadyMembers,
		},
		TotalProcessed: len(classification.ValidUnique),
	}
	s.importMetrics.AddRows("invalid", len(classification.Invalid))
	s.importMetrics.AddRows("duplicate_in_file", len(classification.DuplicatesInFile))
	s.importMetrics.AddRows("already_member", len(alreadyMembers))

	if len(newEmails) == 0 {
		if len(alreadyMembers) > 0 {
			report.Message = "All provided emails are already members of your organization"
		} else {
			report.Message = "No new emails to add"
		}
		s.importMetrics.IncRun("noop")
		return report, nil
	}

	now := s.now()
	invites := make([]models.Member, 0, len(newEmails))
	for _, email := range newEmails {
		e := email
		invites = append(invites, models.Member{
			Email:     &e,
			Role:      enums.MemberRoleCoach,
			InvitedAt: &now,
			InvitedBy: &actorID,
		})
	}

	incoming := len(classification.ValidUnique)
	res, err := s.repo.CreateInvitesLocked(ctx, orgID, invites, func(org *models.Organization, activeCount int64) error {
		decision := CheckSeatLimit(int(activeCount), incoming, org.SeatLimit)
		if !decision.Allowed {
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, fmt.Sprintf(
				"adding %d coaches would exceed your seat limit of %d, you can add up to %d more coaches",
				incoming, *org.SeatLimit, decision.AvailableSeats,
			)).WithDetails(map[string]any{"available_seats": decision.AvailableSeats})
		}
		return nil
	})
	if err != nil {
		s.importMetrics.IncRun("rejected")
		return nil, mapBatchError(err, "import coaches")
	}

	report.Result.Success = len(res.Inserted)
	report.Result.Failed = len(res.Failures)
	s.importMetrics.AddRows("imported", report.Result.Success)
	s.importMetrics.AddRows("failed", report.Result.Failed)

	if len(res.Failures) > 0 {
		var agg error
		for _, failure := range res.Failures {
			report.Result.Errors = append(report.Result.Errors, fmt.Sprintf("failed to add %s", failure.Email))
			agg = multierr.Append(agg, fmt.Errorf("insert %s: %w", failure.Email, failure.Err))
		}
		if s.logg != nil {
			s.logg.Error(ctx, "import batch had row failures", agg)
		}
		s.importMetrics.IncRun("partial")
	} else {
		s.importMetrics.IncRun("success")
	}

	report.Message = composeImportMessage(report.Result)
	return report, nil
}

// composeImportMessage builds the summary sentence from whichever outcome
// buckets are non-empty.
func composeImportMessage(outcome ImportOutcome) string {
	var b strings.Builder
	if outcome.Success > 0 {
		fmt.Fprintf(&b, "Successfully imported %d coaches. ", outcome.Success)
	}
	if len(outcome.Duplicates) > 0 {
		fmt.Fprintf(&b, "%d emails were already members. ", len(outcome.Duplicates))
	}
	if outcome.Failed > 0 {
		fmt.Fprintf(&b, "%d emails failed to import. ", outcome.Failed)
	}
	return strings.TrimSpace(b.String())
}

func (s *service) ExportCSV(ctx context.Context, orgID uuid.UUID) (*Export, error) {
	rows, err := s.repo.ListActive(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch members for export")
	}
	content, err := RenderExportCSV(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render export csv")
	}
	return &Export{
		Filename: ExportFilename(s.now()),
		Content:  content,
	}, nil
}

func (s *service) ClaimInvites(ctx context.Context, userID uuid.UUID, email string) (*ClaimResult, error) {
	normalized, ok := emails.ValidNormalized(email)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}
	claimed, err := s.repo.ClaimInvites(ctx, userID, normalized, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim invites")
	}
	return &ClaimResult{Claimed: claimed}, nil
}

// mapBatchError converts transaction-level failures into typed errors while
// letting already-typed guard errors pass through.
func mapBatchError(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
