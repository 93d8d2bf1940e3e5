package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	ClassID string
	Search  string
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	CreateBatch(ctx context.Context, students []models.Student) error
	GetByID(ctx context.Context, id string) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, error)
	UpdateAvatar(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) CreateBatch(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(students, 100).Error
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.ClassID != "" {
		query = query.Where("class_id = ?", filter.ClassID)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(roll_number) LIKE ?", like, like)
	}

	var students []models.Student
	if err := query.Order("name ASC").Order("id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Update("avatar_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Student{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
