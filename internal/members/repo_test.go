package members

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

func setupMembersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	organizations := `
CREATE TABLE IF NOT EXISTS organizations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  seat_limit INTEGER,
  subscription_status TEXT NOT NULL DEFAULT 'none',
  stripe_customer_id TEXT,
  stripe_subscription_id TEXT,
  logo_url TEXT,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	organizationMembers := `
CREATE TABLE IF NOT EXISTS organization_members (
  id TEXT PRIMARY KEY,
  organization_id TEXT NOT NULL,
  user_id TEXT,
  email TEXT,
  username TEXT,
  role TEXT NOT NULL DEFAULT 'coach',
  invited_at DATETIME,
  joined_at DATETIME,
  invited_by TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	uniqueIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_org_members_email_active
  ON organization_members (organization_id, lower(email))
  WHERE deleted_at IS NULL AND email IS NOT NULL;`

	require.NoError(t, gdb.Exec(organizations).Error)
	require.NoError(t, gdb.Exec(organizationMembers).Error)
	require.NoError(t, gdb.Exec(uniqueIndex).Error)
	return gdb
}

func seedOrg(t *testing.T, gdb *gorm.DB, seatLimit *int) uuid.UUID {
	t.Helper()
	org := models.Organization{
		ID:                 uuid.New(),
		Name:               "Riverside Hockey Club",
		SeatLimit:          seatLimit,
		SubscriptionStatus: enums.SubscriptionStatusActive,
	}
	require.NoError(t, gdb.Create(&org).Error)
	return org.ID
}

func seedMember(t *testing.T, gdb *gorm.DB, orgID uuid.UUID, email string, mutate func(*models.Member)) models.Member {
	t.Helper()
	m := models.Member{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          &email,
		Role:           enums.MemberRoleCoach,
		CreatedAt:      time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&m)
	}
	require.NoError(t, gdb.Create(&m).Error)
	return m
}

func TestRepositoryListPageFiltersAndCounts(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)

	seedMember(t, gdb, orgID, "alpha@rink.com", nil)
	seedMember(t, gdb, orgID, "beta@rink.com", nil)
	removedAt := time.Now().UTC()
	seedMember(t, gdb, orgID, "gone@rink.com", func(m *models.Member) {
		m.DeletedAt = &removedAt
	})

	rows, total, err := repo.ListPage(ctx, orgID, "", 25, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	rows, total, err = repo.ListPage(ctx, orgID, "alpha", 25, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "alpha@rink.com", *rows[0].Email)
}

func TestRepositorySoftDeleteKeepsRow(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)
	member := seedMember(t, gdb, orgID, "coach@rink.com", nil)

	require.NoError(t, repo.SoftDelete(ctx, orgID, member.ID, time.Now().UTC()))

	count, err := repo.CountActive(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// row survives for audit history
	loaded, err := repo.FindByID(ctx, orgID, member.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded.DeletedAt)
}

func TestRepositoryExistingActiveEmailsIgnoresRemoved(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)

	seedMember(t, gdb, orgID, "active@rink.com", nil)
	removedAt := time.Now().UTC()
	seedMember(t, gdb, orgID, "removed@rink.com", func(m *models.Member) {
		m.DeletedAt = &removedAt
	})

	existing, err := repo.ExistingActiveEmails(ctx, orgID, []string{"active@rink.com", "removed@rink.com", "new@rink.com"})
	require.NoError(t, err)
	assert.Contains(t, existing, "active@rink.com")
	assert.NotContains(t, existing, "removed@rink.com")
	assert.NotContains(t, existing, "new@rink.com")
}

func TestRepositoryCreateInvitesLockedInsertsBatch(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	limit := 10
	orgID := seedOrg(t, gdb, &limit)
	actor := uuid.New()
	now := time.Now().UTC()

	emailA, emailB := "a@rink.com", "b@rink.com"
	invites := []models.Member{
		{Email: &emailA, Role: enums.MemberRoleCoach, InvitedAt: &now, InvitedBy: &actor},
		{Email: &emailB, Role: enums.MemberRoleCoach, InvitedAt: &now, InvitedBy: &actor},
	}

	var guardCount int64 = -1
	res, err := repo.CreateInvitesLocked(ctx, orgID, invites, func(org *models.Organization, activeCount int64) error {
		guardCount = activeCount
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), guardCount)
	assert.Len(t, res.Inserted, 2)
	assert.Empty(t, res.Failures)

	count, err := repo.CountActive(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepositoryCreateInvitesLockedGuardAborts(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)

	email := "blocked@rink.com"
	invites := []models.Member{{Email: &email, Role: enums.MemberRoleCoach}}

	_, err := repo.CreateInvitesLocked(ctx, orgID, invites, func(org *models.Organization, activeCount int64) error {
		return assert.AnError
	})
	require.Error(t, err)

	count, err := repo.CountActive(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "guard rejection must roll the batch back")
}

func TestRepositoryCreateInvitesLockedIsolatesRowFailure(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)
	seedMember(t, gdb, orgID, "taken@rink.com", nil)

	taken, fresh := "taken@rink.com", "fresh@rink.com"
	invites := []models.Member{
		{Email: &taken, Role: enums.MemberRoleCoach},
		{Email: &fresh, Role: enums.MemberRoleCoach},
	}

	res, err := repo.CreateInvitesLocked(ctx, orgID, invites, nil)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "taken@rink.com", res.Failures[0].Email)
	require.Len(t, res.Inserted, 1)
	assert.Equal(t, "fresh@rink.com", *res.Inserted[0].Email)
}

func TestRepositoryClaimInvitesIdempotent(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)

	invitedAt := time.Now().UTC().Add(-time.Hour)
	seedMember(t, gdb, orgID, "joiner@rink.com", func(m *models.Member) {
		m.InvitedAt = &invitedAt
		m.CreatedAt = invitedAt
	})

	userID := uuid.New()
	claimed, err := repo.ClaimInvites(ctx, userID, "Joiner@Rink.com", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), claimed)

	// second claim matches nothing
	claimed, err = repo.ClaimInvites(ctx, userID, "joiner@rink.com", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), claimed)
}

func TestRepositoryCountsForStats(t *testing.T) {
	gdb := setupMembersTestDB(t)
	repo := NewRepository(gdb)
	ctx := context.Background()
	orgID := seedOrg(t, gdb, nil)

	now := time.Now().UTC()
	joined := now.Add(-time.Hour)
	old := now.Add(-30 * 24 * time.Hour)

	seedMember(t, gdb, orgID, "owner@rink.com", func(m *models.Member) {
		m.Role = enums.MemberRoleOwner
		m.JoinedAt = &old
		m.CreatedAt = old
	})
	seedMember(t, gdb, orgID, "recent@rink.com", func(m *models.Member) {
		m.JoinedAt = &joined
		m.CreatedAt = old
	})
	seedMember(t, gdb, orgID, "pending@rink.com", func(m *models.Member) {
		m.InvitedAt = &now
	})

	total, err := repo.CountActive(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	coaches, err := repo.CountActiveByRole(ctx, orgID, enums.MemberRoleCoach)
	require.NoError(t, err)
	assert.Equal(t, int64(2), coaches)

	recent, err := repo.CountJoinedSince(ctx, orgID, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), recent)

	pending, err := repo.CountPendingInvites(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}
