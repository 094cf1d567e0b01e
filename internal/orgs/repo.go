package orgs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rinksidehq/rinkside-backend/pkg/db/models"
)

// Repository handles organization persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to organization operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads an active organization by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
