package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

// TeacherRepository provides access to teacher records.
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id string) (models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
	UpdateAvatar(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepository) GetByID(ctx context.Context, id string) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, "id = ?", id).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *teacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

func (r *teacherRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Teacher{}).Where("id = ?", id).Update("avatar_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *teacherRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Teacher{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
