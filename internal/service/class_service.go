package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

// ErrClassNotFound indicates the class section does not exist.
var ErrClassNotFound = errors.New("class not found")

// ClassService manages class sections.
type ClassService interface {
	Create(ctx context.Context, req dto.ClassCreateRequest) (dto.ClassResponse, error)
	List(ctx context.Context) ([]dto.ClassResponse, error)
	Delete(ctx context.Context, id string) error
}

type classService struct {
	repo      repository.ClassRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo repository.ClassRepository, validate *validator.Validate, logger zerolog.Logger) ClassService {
	return &classService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, req dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.ClassSection{
		ID:      uuid.NewString(),
		Grade:   strings.TrimSpace(req.Grade),
		Section: strings.TrimSpace(req.Section),
	}
	if req.ClassTeacherID != nil {
		if teacherID := strings.TrimSpace(*req.ClassTeacherID); teacherID != "" {
			class.ClassTeacherID = &teacherID
		}
	}

	if err := s.repo.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Str("class_id", class.ID).Str("grade", class.Grade).Str("section", class.Section).Msg("class created")
	return dto.NewClassResponse(class), nil
}

func (s *classService) List(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}
	return nil
}
