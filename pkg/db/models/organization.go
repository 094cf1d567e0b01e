package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rinksidehq/rinkside-backend/pkg/enums"
)

// Organization represents the canonical tenant model. Organizations are never
// hard-deleted; DeletedAt marks them inactive.
type Organization struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string                   `gorm:"column:name;not null"`
	SeatLimit            *int                     `gorm:"column:seat_limit"`
	SubscriptionStatus   enums.SubscriptionStatus `gorm:"column:subscription_status;not null;default:'none'"`
	StripeCustomerID     *string                  `gorm:"column:stripe_customer_id"`
	StripeSubscriptionID *string                  `gorm:"column:stripe_subscription_id"`
	LogoURL              *string                  `gorm:"column:logo_url"`
	Metadata             json.RawMessage          `gorm:"column:metadata;type:jsonb"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt            *time.Time               `gorm:"column:deleted_at"`
}

// TableName keeps GORM aligned with the migration schema.
func (Organization) TableName() string {
	return "organizations"
}
