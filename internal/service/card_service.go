package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/repository"
	"github.com/noah-isme/vibecheck-api/pkg/idcard"
)

// CardService renders identity cards whose QR code is the scan identifier.
type CardService interface {
	Card(ctx context.Context, personID string) (dto.CardResponse, error)
	QR(ctx context.Context, personID string, size int) ([]byte, error)
}

type cardService struct {
	students repository.StudentRepository
	teachers repository.TeacherRepository
	registry attendance.Registry
	config   *attendance.ConfigHolder
	logger   zerolog.Logger
}

// NewCardService constructs the card service.
func NewCardService(students repository.StudentRepository, teachers repository.TeacherRepository, registry attendance.Registry, config *attendance.ConfigHolder, logger zerolog.Logger) CardService {
	return &cardService{
		students: students,
		teachers: teachers,
		registry: registry,
		config:   config,
		logger:   logger.With().Str("component", "card_service").Logger(),
	}
}

func (s *cardService) Card(ctx context.Context, personID string) (dto.CardResponse, error) {
	person, ok := s.registry.Resolve(personID)
	if !ok {
		return dto.CardResponse{}, ErrPersonNotFound
	}

	var summary dto.PersonSummary
	switch person.Classification {
	case attendance.ClassificationTeacher:
		teacher, err := s.teachers.GetByID(ctx, person.ID)
		if err != nil {
			return dto.CardResponse{}, translateNotFound(err)
		}
		summary = dto.TeacherSummary(teacher)
	default:
		student, err := s.students.GetByID(ctx, person.ID)
		if err != nil {
			return dto.CardResponse{}, translateNotFound(err)
		}
		summary = dto.StudentSummary(student)
	}

	school := s.config.Get()
	return dto.CardResponse{
		Person:        summary,
		SchoolName:    school.Name,
		SchoolAddress: school.Address,
		SchoolLogoURL: school.LogoURL,
		QRPayload:     person.ID,
		QRImagePath:   fmt.Sprintf("/api/v1/cards/%s/qr.png", person.ID),
	}, nil
}

func (s *cardService) QR(_ context.Context, personID string, size int) ([]byte, error) {
	person, ok := s.registry.Resolve(personID)
	if !ok {
		return nil, ErrPersonNotFound
	}

	png, err := idcard.QRCodePNG(person.ID, size)
	if err != nil {
		s.logger.Error().Err(err).Str("person_id", person.ID).Msg("failed to render card qr code")
		return nil, err
	}
	return png, nil
}
