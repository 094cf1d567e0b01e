package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

// Member links an invited or joined coach/admin/owner with an organization.
// DeletedAt is the canonical soft-delete marker; rows are retained for audit
// history and excluded from active counts and listings.
type Member struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID        `gorm:"column:organization_id;type:uuid;not null;index"`
	UserID         *uuid.UUID       `gorm:"column:user_id;type:uuid"`
	Email          *string          `gorm:"column:email"`
	Username       *string          `gorm:"column:username"`
	Role           enums.MemberRole `gorm:"column:role;not null;default:'coach'"`
	InvitedAt      *time.Time       `gorm:"column:invited_at"`
	JoinedAt       *time.Time       `gorm:"column:joined_at"`
	InvitedBy      *uuid.UUID       `gorm:"column:invited_by;type:uuid"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      *time.Time       `gorm:"column:deleted_at"`
}

// TableName keeps GORM aligned with the migration schema.
func (Member) TableName() string {
	return "organization_members"
}

// Status derives the member's lifecycle state from its timestamps.
func (m Member) Status() enums.MemberStatus {
	switch {
	case m.DeletedAt != nil:
		return enums.MemberStatusRemoved
	case m.JoinedAt != nil:
		return enums.MemberStatusActive
	default:
		return enums.MemberStatusInvited
	}
}

// DisplayName resolves the fallback chain email -> username -> "Unknown User".
func (m Member) DisplayName() string {
	if m.Email != nil && *m.Email != "" {
		return *m.Email
	}
	if m.Username != nil && *m.Username != "" {
		return *m.Username
	}
	return "Unknown User"
}
