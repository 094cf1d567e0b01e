package members

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/rinksidehq/rinkside-backend/pkg/config"
	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
	pkgerrors "github.com/rinksidehq/rinkside-backend/pkg/errors"
)

type stubRepo struct {
	org         models.Organization
	activeCount int64
	existing    map[string]struct{}
	failEmails  map[string]error

	findByID     *models.Member
	findByIDErr  error
	byEmail      *models.Member
	byEmailErr   error
	listRows     []models.Member
	listTotal    int64
	claimCount   int64
	softDeleted  []uuid.UUID
	lastInserted []models.Member
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		existing:   map[string]struct{}{},
		failEmails: map[string]error{},
		byEmailErr: gorm.ErrRecordNotFound,
	}
}

func (s *stubRepo) ListPage(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]models.Member, int64, error) {
	return s.listRows, s.listTotal, nil
}

func (s *stubRepo) ListActive(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	return s.listRows, nil
}

func (s *stubRepo) FindByID(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error) {
	return s.findByID, s.findByIDErr
}

func (s *stubRepo) FindActiveByEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Member, error) {
	return s.byEmail, s.byEmailErr
}

func (s *stubRepo) ExistingActiveEmails(ctx context.Context, orgID uuid.UUID, emails []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, email := range emails {
		if _, ok := s.existing[email]; ok {
			out[email] = struct{}{}
		}
	}
	return out, nil
}

func (s *stubRepo) SoftDelete(ctx context.Context, orgID, memberID uuid.UUID, now time.Time) error {
	s.softDeleted = append(s.softDeleted, memberID)
	return nil
}

func (s *stubRepo) ClaimInvites(ctx context.Context, userID uuid.UUID, email string, now time.Time) (int64, error) {
	return s.claimCount, nil
}

func (s *stubRepo) CreateInvitesLocked(ctx context.Context, orgID uuid.UUID, invites []models.Member, guard SeatGuard) (*InviteBatchResult, error) {
	if guard != nil {
		if err := guard(&s.org, s.activeCount); err != nil {
			return nil, err
		}
	}
	res := &InviteBatchResult{}
	for i := range invites {
		invite := invites[i]
		invite.ID = uuid.New()
		invite.OrganizationID = orgID
		email := ""
		if invite.Email != nil {
			email = *invite.Email
		}
		if err, ok := s.failEmails[email]; ok {
			res.Failures = append(res.Failures, InviteFailure{Email: email, Err: err})
			continue
		}
		res.Inserted = append(res.Inserted, invite)
	}
	s.lastInserted = res.Inserted
	return res, nil
}

func newTestService(t *testing.T, repo *stubRepo) Service {
	t.Helper()
	svc, err := NewService(repo, config.ImportConfig{MaxCSVBytes: 1 << 20, OverfetchFactor: 3}, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seatLimit(n int) *int { return &n }

func TestAddRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(t, newStubRepo())
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), "not-an-email")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddRejectsExistingMember(t *testing.T) {
	repo := newStubRepo()
	email := "coach@rink.com"
	repo.byEmail = &models.Member{ID: uuid.New(), Email: &email}
	repo.byEmailErr = nil

	svc := newTestService(t, repo)
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), "Coach@Rink.com")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddConflictWhenInsertRaces(t *testing.T) {
	repo := newStubRepo()
	repo.org.SeatLimit = seatLimit(10)
	repo.failEmails["race@rink.com"] = &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_org_members_email_active",
	}

	svc := newTestService(t, repo)
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), "race@rink.com")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for concurrent insert, got %v", err)
	}
	if !strings.Contains(typed.Message(), "already a member") {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestAddRejectsWhenSeatLimitReached(t *testing.T) {
	repo := newStubRepo()
	repo.org.SeatLimit = seatLimit(10)
	repo.activeCount = 10

	svc := newTestService(t, repo)
	_, err := svc.Add(context.Background(), uuid.New(), uuid.New(), "new@rink.com")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "10") {
		t.Fatalf("message must name the limit, got %q", typed.Message())
	}
}

func TestAddNormalizesAndInserts(t *testing.T) {
	repo := newStubRepo()
	repo.org.SeatLimit = seatLimit(10)
	repo.activeCount = 3
	actor := uuid.New()

	svc := newTestService(t, repo)
	dto, err := svc.Add(context.Background(), uuid.New(), actor, "  New.Coach@Rink.COM ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if dto.Email != "new.coach@rink.com" {
		t.Fatalf("email not normalized, got %q", dto.Email)
	}
	if dto.Role != enums.MemberRoleCoach {
		t.Fatalf("expected coach role, got %s", dto.Role)
	}
	if dto.Status != enums.MemberStatusInvited {
		t.Fatalf("expected invited status, got %s", dto.Status)
	}
	if len(repo.lastInserted) != 1 || repo.lastInserted[0].InvitedBy == nil || *repo.lastInserted[0].InvitedBy != actor {
		t.Fatal("invited_by must be the acting user")
	}
}

func TestRemoveProtectsOwner(t *testing.T) {
	repo := newStubRepo()
	repo.findByID = &models.Member{ID: uuid.New(), Role: enums.MemberRoleOwner}

	svc := newTestService(t, repo)
	err := svc.Remove(context.Background(), uuid.New(), uuid.New(), repo.findByID.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.softDeleted) != 0 {
		t.Fatal("owner must never be soft-deleted")
	}
}

func TestRemoveMissingMember(t *testing.T) {
	repo := newStubRepo()
	repo.findByIDErr = gorm.ErrRecordNotFound

	svc := newTestService(t, repo)
	err := svc.Remove(context.Background(), uuid.New(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveSoftDeletesCoach(t *testing.T) {
	repo := newStubRepo()
	memberID := uuid.New()
	repo.findByID = &models.Member{ID: memberID, Role: enums.MemberRoleCoach}

	svc := newTestService(t, repo)
	if err := svc.Remove(context.Background(), uuid.New(), uuid.New(), memberID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(repo.softDeleted) != 1 || repo.softDeleted[0] != memberID {
		t.Fatal("expected soft delete of the member")
	}
}

func TestImportScenarioMixedBuckets(t *testing.T) {
	repo := newStubRepo()
	repo.org.SeatLimit = seatLimit(50)
	repo.activeCount = 5
	repo.existing["existing@x.com"] = struct{}{}

	svc := newTestService(t, repo)
	report, err := svc.ImportEmails(context.Background(), uuid.New(), uuid.New(), []string{
		"new1@x.com", "existing@x.com", "bad-email",
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Result.Success != 1 {
		t.Fatalf("expected success=1, got %d", report.Result.Success)
	}
	if len(report.Result.Duplicates) != 1 || report.Result.Duplicates[0] != "existing@x.com" {
		t.Fatalf("unexpected duplicates %v", report.Result.Duplicates)
	}
	if report.Result.Failed != 0 {
		t.Fatalf("invalid rows must not count as failures, got %d", report.Result.Failed)
	}
	// bad-email is filtered before classification against the store
	if report.TotalProcessed != 2 {
		t.Fatalf("expected 2 processed, got %d", report.TotalProcessed)
	}
	if !strings.Contains(report.Message, "Successfully imported 1 coaches") {
		t.Fatalf("unexpected message %q", report.Message)
	}
	if !strings.Contains(report.Message, "1 emails were already members") {
		t.Fatalf("unexpected message %q", report.Message)
	}
}

func TestImportRejectsWhenNothingValid(t *testing.T) {
	svc := newTestService(t, newStubRepo())

	_, err := svc.ImportEmails(context.Background(), uuid.New(), uuid.New(), []string{"bad", "also bad"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.ImportEmails(context.Background(), uuid.New(), uuid.New(), nil)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}
	if !strings.Contains(typed.Message(), "no email addresses found") {
		t.Fatalf("empty input should be distinguished, got %q", typed.Message())
	}
}

func TestImportSeatLimitRejectsWholeBatch(t *testing.T) {
	repo := newStubRepo()
	repo.org.SeatLimit = seatLimit(10)
	repo.activeCount = 8

	svc := newTestService(t, repo)
	_, err := svc.ImportEmails(context.Background(), uuid.New(), uuid.New(), []string{
		"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["available_seats"] != 2 {
		t.Fatalf("expected 2 available seats, got %v", details["available_seats"])
	}
	if len(repo.lastInserted) != 0 {
		t.Fatal("no partial admission on seat rejection")
	}
}

func TestImportAllExistingMembers(t *testing.T) {
	repo := newStubRepo()
	repo.existing["a@x.com"] = struct{}{}
	repo.existing["b@x.com"] = struct{}{}

	svc := newTestService(t, repo)
	report, err := svc.ImportEmails(context.Background(), uuid.New(), uuid.New(), []string{"a@x.com", "b@x.com"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Result.Success != 0 || len(report.Result.Duplicates) != 2 {
		t.Fatalf("unexpected outcome %+v", report.Result)
	}
	if report.Message != "All provided emails are already members of your organization" {
		t.Fatalf("unexpected message %q", report.Message)
	}
}

func TestImportReportsPerRowFailures(t *testing.T) {
	repo := newStubRepo()
	repo.org.SeatLimit = seatLimit(50)
	repo.failEmails["race@x.com"] = gorm.ErrDuplicatedKey

	svc := newTestService(t, repo)
	report, err := svc.ImportEmails(context.Background(), uuid.New(), uuid.New(), []string{"ok@x.com", "race@x.com"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Result.Success != 1 || report.Result.Failed != 1 {
		t.Fatalf("unexpected counts %+v", report.Result)
	}
	if len(report.Result.Errors) != 1 || !strings.Contains(report.Result.Errors[0], "race@x.com") {
		t.Fatalf("unexpected errors %v", report.Result.Errors)
	}
	if !strings.Contains(report.Message, "1 emails failed to import") {
		t.Fatalf("unexpected message %q", report.Message)
	}
}

func TestListComputesTotalPages(t *testing.T) {
	repo := newStubRepo()
	repo.listTotal = 51

	svc := newTestService(t, repo)
	res, err := svc.List(context.Background(), uuid.New(), 1, 25, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 51 rows at 25/page, got %d", res.TotalPages)
	}
}

func TestClaimInvites(t *testing.T) {
	repo := newStubRepo()
	repo.claimCount = 2

	svc := newTestService(t, repo)
	res, err := svc.ClaimInvites(context.Background(), uuid.New(), "Joined@Rink.com")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Claimed != 2 {
		t.Fatalf("expected 2 claimed, got %d", res.Claimed)
	}

	if _, err := svc.ClaimInvites(context.Background(), uuid.New(), "nope"); pkgerrors.As(err) == nil {
		t.Fatal("expected validation error for invalid email")
	}
}

func TestExportCSVIncludesFilename(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)

	export, err := svc.ExportCSV(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(export.Filename, "coaches-export-") || !strings.HasSuffix(export.Filename, ".csv") {
		t.Fatalf("unexpected filename %q", export.Filename)
	}
	if !strings.HasPrefix(string(export.Content), "Email,Role,Status,Date Added") {
		t.Fatalf("missing header in %q", string(export.Content))
	}
}
