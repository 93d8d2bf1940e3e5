package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

// ClassRepository persists class sections.
type ClassRepository interface {
	Create(ctx context.Context, class *models.ClassSection) error
	GetByID(ctx context.Context, id string) (models.ClassSection, error)
	List(ctx context.Context) ([]models.ClassSection, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs the class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *models.ClassSection) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) GetByID(ctx context.Context, id string) (models.ClassSection, error) {
	var class models.ClassSection
	if err := r.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
		return models.ClassSection{}, err
	}
	return class, nil
}

func (r *classRepository) List(ctx context.Context) ([]models.ClassSection, error) {
	var classes []models.ClassSection
	err := r.db.WithContext(ctx).
		Order("grade ASC").
		Order("section ASC").
		Find(&classes).Error
	return classes, err
}

func (r *classRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClassSection{}).Count(&count).Error
	return count, err
}

func (r *classRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.ClassSection{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
