package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/repository"
	"github.com/noah-isme/vibecheck-api/pkg/ai"
)

// ErrSuggestionsDisabled indicates no language model is configured.
var ErrSuggestionsDisabled = errors.New("ai suggestions are disabled")

// SuggestionService fills roster forms with generated or extracted student details.
type SuggestionService interface {
	Suggest(ctx context.Context, req dto.SuggestionRequest) ([]dto.StudentSuggestion, error)
	ExtractFromCard(ctx context.Context, file *multipart.FileHeader) (dto.StudentCreateRequest, error)
}

type suggestionService struct {
	generator ai.ProfileGenerator
	classes   repository.ClassRepository
	validator *validator.Validate
	maxSize   int64
	logger    zerolog.Logger
}

// NewSuggestionService constructs the suggestion service. A nil generator disables it.
func NewSuggestionService(generator ai.ProfileGenerator, classes repository.ClassRepository, maxImageMB int, validate *validator.Validate, logger zerolog.Logger) SuggestionService {
	if maxImageMB <= 0 {
		maxImageMB = 2
	}
	return &suggestionService{
		generator: generator,
		classes:   classes,
		validator: validate,
		maxSize:   int64(maxImageMB) * 1024 * 1024,
		logger:    logger.With().Str("component", "suggestion_service").Logger(),
	}
}

func (s *suggestionService) Suggest(ctx context.Context, req dto.SuggestionRequest) ([]dto.StudentSuggestion, error) {
	if s.generator == nil {
		return nil, ErrSuggestionsDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	profiles, err := s.generator.GenerateStudents(ctx, req.Count)
	if err != nil {
		return nil, err
	}

	result := make([]dto.StudentSuggestion, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, dto.StudentSuggestion{Name: p.Name, RollNumber: p.RollNumber, Grade: p.Grade})
	}
	return result, nil
}

// ExtractFromCard reads a photographed ID card into a prefilled create request. The class is
// matched by grade and section when one exists; otherwise grade and section are passed through.
func (s *suggestionService) ExtractFromCard(ctx context.Context, file *multipart.FileHeader) (dto.StudentCreateRequest, error) {
	if s.generator == nil {
		return dto.StudentCreateRequest{}, ErrSuggestionsDisabled
	}
	if file == nil {
		return dto.StudentCreateRequest{}, errors.New("image is required")
	}
	if file.Size > s.maxSize {
		return dto.StudentCreateRequest{}, ErrAvatarTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return dto.StudentCreateRequest{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return dto.StudentCreateRequest{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.StudentCreateRequest{}, ErrAvatarTooLarge
	}

	mimeType := strings.ToLower(mimetype.Detect(buf.Bytes()).String())
	if _, ok := allowedAvatarTypes[mimeType]; !ok {
		return dto.StudentCreateRequest{}, ErrAvatarTypeNotAllowed
	}

	profile, err := s.generator.ExtractStudent(ctx, ai.CardImage{MimeType: mimeType, Data: buf.Bytes()})
	if err != nil {
		return dto.StudentCreateRequest{}, err
	}

	req := dto.StudentCreateRequest{
		Name:          profile.Name,
		RollNumber:    profile.RollNumber,
		Grade:         profile.Grade,
		Section:       profile.Section,
		ParentName:    profile.ParentName,
		ParentContact: profile.ParentContact,
		DateOfBirth:   profile.DateOfBirth,
		BloodGroup:    profile.BloodGroup,
		Address:       profile.Address,
	}

	if profile.Grade != "" {
		classes, err := s.classes.List(ctx)
		if err != nil {
			return dto.StudentCreateRequest{}, err
		}
		if class, ok := matchClass(classes, profile.Grade, profile.Section); ok {
			if profile.Section == "" || class.Section == profile.Section {
				req.ClassID = class.ID
			}
		}
	}

	s.logger.Info().Bool("class_matched", req.ClassID != "").Msg("student details extracted from card")
	return req, nil
}
