package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

// SchoolRepository loads and replaces the single school profile row.
type SchoolRepository interface {
	Get(ctx context.Context) (models.SchoolProfile, error)
	Save(ctx context.Context, profile *models.SchoolProfile) error
}

type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository constructs the school profile repository.
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

// Get returns gorm.ErrRecordNotFound until a profile has been saved.
func (r *schoolRepository) Get(ctx context.Context) (models.SchoolProfile, error) {
	var profile models.SchoolProfile
	if err := r.db.WithContext(ctx).First(&profile, models.SchoolProfileID).Error; err != nil {
		return models.SchoolProfile{}, err
	}
	return profile, nil
}

func (r *schoolRepository) Save(ctx context.Context, profile *models.SchoolProfile) error {
	profile.ID = models.SchoolProfileID
	return r.db.WithContext(ctx).Save(profile).Error
}
