package members

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

// Repository handles organization member persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to member operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func activeMembers(db *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return db.Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Where("deleted_at IS NULL")
}

// ListPage returns one page of active members ordered newest first, plus the
// total active count for the same filter.
func (r *Repository) ListPage(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]models.Member, int64, error) {
	base := activeMembers(r.db.WithContext(ctx), orgID)
	if search = strings.TrimSpace(search); search != "" {
		base = base.Where("email LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Member
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListActive returns every active member for an organization, newest first.
func (r *Repository) ListActive(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	var rows []models.Member
	if err := activeMembers(r.db.WithContext(ctx), orgID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecent returns up to limit members (active or removed) ordered by
// created_at descending, optionally bounded by created_at < before. Removed
// rows are included on purpose: audit history needs them.
func (r *Repository) ListRecent(ctx context.Context, orgID uuid.UUID, limit int, before *time.Time) ([]models.Member, error) {
	q := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var rows []models.Member
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// InviterEmails resolves invited_by user ids to member emails within the org.
func (r *Repository) InviterEmails(ctx context.Context, orgID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.Member
	if err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Where("user_id IN ?", userIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.UserID != nil && row.Email != nil {
			out[*row.UserID] = *row.Email
		}
	}
	return out, nil
}

// FindByID loads a member scoped to the organization, removed rows included.
func (r *Repository) FindByID(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error) {
	var row models.Member
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Where("id = ?", memberID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindActiveByEmail loads the active member holding the normalized email.
func (r *Repository) FindActiveByEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Member, error) {
	var row models.Member
	if err := activeMembers(r.db.WithContext(ctx), orgID).
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ExistingActiveEmails returns which of the provided normalized emails already
// belong to an active member.
func (r *Repository) ExistingActiveEmails(ctx context.Context, orgID uuid.UUID, emails []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	var rows []models.Member
	if err := activeMembers(r.db.WithContext(ctx), orgID).
		Where("lower(email) IN ?", emails).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Email != nil {
			out[strings.ToLower(*row.Email)] = struct{}{}
		}
	}
	return out, nil
}

// CountActive counts active members in the organization.
func (r *Repository) CountActive(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	if err := activeMembers(r.db.WithContext(ctx), orgID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveByRole counts active members holding the given role.
func (r *Repository) CountActiveByRole(ctx context.Context, orgID uuid.UUID, role enums.MemberRole) (int64, error) {
	var count int64
	if err := activeMembers(r.db.WithContext(ctx), orgID).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountJoinedSince counts active members who joined at or after the bound.
func (r *Repository) CountJoinedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := activeMembers(r.db.WithContext(ctx), orgID).
		Where("joined_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountPendingInvites counts active members who were invited but have not joined.
func (r *Repository) CountPendingInvites(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	if err := activeMembers(r.db.WithContext(ctx), orgID).
		Where("invited_at IS NOT NULL").
		Where("joined_at IS NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SoftDelete stamps deleted_at on the member. Rows are never physically removed.
func (r *Repository) SoftDelete(ctx context.Context, orgID, memberID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Where("id = ?", memberID).
		Update("deleted_at", now).Error
}

// ClaimInvites stamps joined_at and user_id on every active invited membership
// matching the normalized email where joined_at is still null. Running it again
// matches zero rows.
func (r *Repository) ClaimInvites(ctx context.Context, userID uuid.UUID, email string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("lower(email) = ?", strings.ToLower(email)).
		Where("deleted_at IS NULL").
		Where("joined_at IS NULL").
		Updates(map[string]any{
			"joined_at": now,
			"user_id":   userID,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SeatGuard decides whether the pending batch may be admitted given the locked
// organization row and the active member count observed in the same transaction.
type SeatGuard func(org *models.Organization, activeCount int64) error

// InviteFailure records one row that could not be inserted.
type InviteFailure struct {
	Email string
	Err   error
}

// InviteBatchResult reports per-row outcomes of a locked batch insert.
type InviteBatchResult struct {
	Inserted []models.Member
	Failures []InviteFailure
}

// CreateInvitesLocked runs the seat check and the batch insert in a single
// transaction with the organization row locked, so concurrent imports cannot
// overshoot the seat limit. Rows are inserted under savepoints: one bad row
// (a lost uniqueness race) fails alone instead of poisoning the batch.
func (r *Repository) CreateInvitesLocked(ctx context.Context, orgID uuid.UUID, invites []models.Member, guard SeatGuard) (*InviteBatchResult, error) {
	result := &InviteBatchResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orgQuery := tx.Where("id = ?", orgID).Where("deleted_at IS NULL")
		// sqlite has no row locks; its single-writer model covers local runs
		if tx.Dialector.Name() == "postgres" {
			orgQuery = orgQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var org models.Organization
		if err := orgQuery.First(&org).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := activeMembers(tx, orgID).Count(&activeCount).Error; err != nil {
			return err
		}

		if guard != nil {
			if err := guard(&org, activeCount); err != nil {
				return err
			}
		}

		for i := range invites {
			invite := invites[i]
			invite.OrganizationID = orgID
			if invite.ID == uuid.Nil {
				invite.ID = uuid.New()
			}
			sp := fmt.Sprintf("invite_row_%d", i)
			tx.SavePoint(sp)
			if err := tx.Create(&invite).Error; err != nil {
				tx.RollbackTo(sp)
				email := ""
				if invite.Email != nil {
					email = *invite.Email
				}
				result.Failures = append(result.Failures, InviteFailure{Email: email, Err: err})
				continue
			}
			result.Inserted = append(result.Inserted, invite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
