package orgs

import (
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

// Stats summarizes membership activity for the dashboard.
type Stats struct {
	MemberCount    int64 `json:"member_count"`
	CoachCount     int64 `json:"coach_count"`
	RecentlyJoined int64 `json:"recently_joined"`
	PendingInvites int64 `json:"pending_invites"`
}

// OrganizationDTO is the wire representation of an organization profile.
type OrganizationDTO struct {
	ID                 uuid.UUID                `json:"id"`
	Name               string                   `json:"name"`
	SeatLimit          *int                     `json:"seat_limit"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscription_status"`
	LogoURL            *string                  `json:"logo_url,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	Stats              Stats                    `json:"stats"`
}

// FromModel maps an organization row plus its stats to the DTO.
func FromModel(org *models.Organization, stats Stats) *OrganizationDTO {
	if org == nil {
		return nil
	}
	return &OrganizationDTO{
		ID:                 org.ID,
		Name:               org.Name,
		SeatLimit:          org.SeatLimit,
		SubscriptionStatus: org.SubscriptionStatus,
		LogoURL:            org.LogoURL,
		CreatedAt:          org.CreatedAt,
		Stats:              stats,
	}
}
