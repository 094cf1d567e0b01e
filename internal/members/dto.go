package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

// MemberDTO is the wire representation of an organization member.
type MemberDTO struct {
	ID        uuid.UUID          `json:"id"`
	Email     string             `json:"email"`
	Role      enums.MemberRole   `json:"role"`
	Status    enums.MemberStatus `json:"status"`
	InvitedAt *time.Time         `json:"invited_at,omitempty"`
	JoinedAt  *time.Time         `json:"joined_at,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// FromModel maps a member row to its DTO.
func FromModel(m *models.Member) *MemberDTO {
	if m == nil {
		return nil
	}
	email := ""
	if m.Email != nil {
		email = *m.Email
	}
	return &MemberDTO{
		ID:        m.ID,
		Email:     email,
		Role:      m.Role,
		Status:    m.Status(),
		InvitedAt: m.InvitedAt,
		JoinedAt:  m.JoinedAt,
		CreatedAt: m.CreatedAt,
	}
}

// ListResult is the paginated coach listing payload.
type ListResult struct {
	Members    []MemberDTO `json:"members"`
	TotalCount int64       `json:"total_count"`
	TotalPages int         `json:"total_pages"`
}

// ImportOutcome carries the per-bucket counts for one import run.
type ImportOutcome struct {
	Success    int      `json:"success"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
	Duplicates []string `json:"duplicates"`
}

// ImportReport is the full import response: outcome, a human summary, and how
// many valid candidates were processed.
type ImportReport struct {
	Result         ImportOutcome `json:"result"`
	Message        string        `json:"message"`
	TotalProcessed int           `json:"total_processed"`
}

// ClaimResult reports how many pending invites were stamped for a user.
type ClaimResult struct {
	Claimed int64 `json:"claimed"`
}
