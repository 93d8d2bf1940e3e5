package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

var demoClasses = []models.ClassSection{
	{Grade: "10", Section: "A"},
	{Grade: "11", Section: "Science"},
	{Grade: "12", Section: "Commerce"},
}

func demoSchool() models.SchoolProfile {
	return models.SchoolProfile{
		Name:            "Riverdale High",
		Address:         "123 Riverdale Ln, New York",
		EstablishedYear: "1998",
		StartTime:       attendance.DefaultStartTime,
	}
}

// SeedService installs demo data for a fresh deployment.
type SeedService interface {
	SeedDemo(ctx context.Context, token string) (dto.SeedResult, error)
}

type seedService struct {
	school  repository.SchoolRepository
	classes repository.ClassRepository
	config  *attendance.ConfigHolder
	enabled bool
	token   string
	logger  zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(school repository.SchoolRepository, classes repository.ClassRepository, config *attendance.ConfigHolder, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		school:  school,
		classes: classes,
		config:  config,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedDemo creates the demo school profile and classes when they are missing. Existing data is left alone.
func (s *seedService) SeedDemo(ctx context.Context, token string) (dto.SeedResult, error) {
	if !s.enabled {
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResult{}, ErrSeedUnauthorized
	}

	result := dto.SeedResult{}

	if _, err := s.school.Get(ctx); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return result, err
		}
		profile := demoSchool()
		if err := s.school.Save(ctx, &profile); err != nil {
			return result, err
		}
		s.config.Replace(profile.Config())
		result.SchoolCreated = true
	}

	existing, err := s.classes.List(ctx)
	if err != nil {
		return result, err
	}
	for _, demo := range demoClasses {
		if hasSection(existing, demo) {
			continue
		}
		class := demo
		class.ID = uuid.NewString()
		if err := s.classes.Create(ctx, &class); err != nil {
			return result, err
		}
		result.ClassesCreated++
	}

	s.logger.Info().Bool("school_created", result.SchoolCreated).Int("classes_created", result.ClassesCreated).Msg("demo data seeded")
	return result, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func hasSection(classes []models.ClassSection, target models.ClassSection) bool {
	for _, class := range classes {
		if class.Grade == target.Grade && class.Section == target.Section {
			return true
		}
	}
	return false
}
