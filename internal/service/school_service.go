package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

// SchoolService reads and replaces the school profile, including the attendance start time.
type SchoolService interface {
	Get(ctx context.Context) (dto.SchoolResponse, error)
	Update(ctx context.Context, req dto.SchoolUpdateRequest) (dto.SchoolResponse, error)
}

type schoolService struct {
	repo             repository.SchoolRepository
	config           *attendance.ConfigHolder
	defaultStartTime string
	validator        *validator.Validate
	sanitizer        *bluemonday.Policy
	logger           zerolog.Logger
}

// NewSchoolService constructs the school service.
func NewSchoolService(repo repository.SchoolRepository, config *attendance.ConfigHolder, defaultStartTime string, validate *validator.Validate, logger zerolog.Logger) SchoolService {
	if _, fellBack := attendance.EffectiveStartTime(defaultStartTime); fellBack {
		defaultStartTime = attendance.DefaultStartTime
	}
	return &schoolService{
		repo:             repo,
		config:           config,
		defaultStartTime: defaultStartTime,
		validator:        validate,
		sanitizer:        bluemonday.StrictPolicy(),
		logger:           logger.With().Str("component", "school_service").Logger(),
	}
}

// Get returns the stored profile, or the in-memory configuration when nothing was saved yet.
func (s *schoolService) Get(ctx context.Context) (dto.SchoolResponse, error) {
	profile, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SchoolResponse{}, err
		}
		cfg := s.config.Get()
		return dto.SchoolResponse{
			Name:            cfg.Name,
			Address:         cfg.Address,
			EstablishedYear: cfg.EstablishedYear,
			LogoURL:         cfg.LogoURL,
			StartTime:       cfg.StartTime,
		}, nil
	}
	return dto.NewSchoolResponse(profile), nil
}

// Update replaces the whole profile. The new start time applies to every later scan.
func (s *schoolService) Update(ctx context.Context, req dto.SchoolUpdateRequest) (dto.SchoolResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SchoolResponse{}, err
	}

	name := s.clean(req.Name)
	if name == "" {
		return dto.SchoolResponse{}, ErrEmptyAfterSanitize
	}

	startTime := strings.TrimSpace(req.StartTime)
	if startTime == "" {
		startTime = s.defaultStartTime
	}
	startTime, _ = attendance.EffectiveStartTime(startTime)

	profile := models.SchoolProfile{
		Name:            name,
		Address:         s.clean(req.Address),
		EstablishedYear: strings.TrimSpace(req.EstablishedYear),
		LogoURL:         strings.TrimSpace(req.LogoURL),
		StartTime:       startTime,
	}
	if len(req.Metadata) > 0 {
		profile.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Save(ctx, &profile); err != nil {
		return dto.SchoolResponse{}, err
	}
	s.config.Replace(profile.Config())

	s.logger.Info().Str("start_time", profile.StartTime).Msg("school profile updated")
	return dto.NewSchoolResponse(profile), nil
}

func (s *schoolService) clean(value string) string {
	return sanitizeText(s.sanitizer, value)
}
