package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/observability"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

var (
	// ErrAvatarTooLarge indicates the image exceeded the configured limit.
	ErrAvatarTooLarge = errors.New("avatar exceeds maximum allowed size")
	// ErrAvatarTypeNotAllowed indicates the payload is not a supported image.
	ErrAvatarTypeNotAllowed = errors.New("avatar must be a png, jpeg, gif or webp image")
	// ErrAvatarStorageDisabled indicates no storage backend is configured.
	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
)

var allowedAvatarTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// FileStorage abstracts avatar destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AvatarService validates and stores profile photos for students and teachers.
type AvatarService interface {
	Upload(ctx context.Context, classification attendance.Classification, personID string, file *multipart.FileHeader) (dto.AvatarResponse, error)
}

type avatarService struct {
	storage  FileStorage
	students repository.StudentRepository
	teachers repository.TeacherRepository
	maxSize  int64
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewAvatarService constructs the avatar service. A nil storage disables uploads.
func NewAvatarService(storage FileStorage, students repository.StudentRepository, teachers repository.TeacherRepository, maxSizeMB int, logger zerolog.Logger) AvatarService {
	if maxSizeMB <= 0 {
		maxSizeMB = 2
	}
	return &avatarService{
		storage:  storage,
		students: students,
		teachers: teachers,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		logger:   logger.With().Str("component", "avatar_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/vibecheck-api/internal/service/avatar"),
	}
}

func (s *avatarService) Upload(ctx context.Context, classification attendance.Classification, personID string, file *multipart.FileHeader) (dto.AvatarResponse, error) {
	ctx, span := s.tracer.Start(ctx, "avatar.store", trace.WithAttributes(
		attribute.String("avatar.person_id", personID),
		attribute.String("avatar.type", string(classification)),
		attribute.Int64("avatar.max_bytes", s.maxSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.AvatarUploadLatency().Observe(time.Since(start).Seconds())
	}()

	fail := func(reason string, err error) (dto.AvatarResponse, error) {
		observability.AvatarUploads().WithLabelValues(reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.AvatarResponse{}, err
	}

	if s.storage == nil {
		return fail("disabled", ErrAvatarStorageDisabled)
	}
	if file == nil {
		return fail("validation", errors.New("file is required"))
	}

	if err := s.ensurePerson(ctx, classification, personID); err != nil {
		return fail("not_found", err)
	}

	if file.Size > s.maxSize {
		return fail("size", ErrAvatarTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		return fail("open", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return fail("read", err)
	}
	if int64(buf.Len()) > s.maxSize {
		return fail("size", ErrAvatarTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	mimeType := strings.ToLower(detected.String())
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	span.SetAttributes(attribute.String("avatar.detected_mime", mimeType))
	if _, ok := allowedAvatarTypes[mimeType]; !ok {
		return fail("type", ErrAvatarTypeNotAllowed)
	}

	name := strings.ToLower(string(classification)) + "-" + personID + detected.Extension()
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fail("storage", err)
	}

	if err := s.updateAvatar(ctx, classification, personID, url); err != nil {
		return fail("persistence", err)
	}

	observability.AvatarUploads().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Str("person_id", personID).Str("mime", mimeType).Msg("avatar stored")

	return dto.AvatarResponse{
		PersonID:  personID,
		AvatarURL: url,
		MimeType:  mimeType,
		SizeBytes: int64(buf.Len()),
	}, nil
}

func (s *avatarService) ensurePerson(ctx context.Context, classification attendance.Classification, personID string) error {
	var err error
	switch classification {
	case attendance.ClassificationTeacher:
		_, err = s.teachers.GetByID(ctx, personID)
	default:
		_, err = s.students.GetByID(ctx, personID)
	}
	if err != nil {
		return translateNotFound(err)
	}
	return nil
}

func (s *avatarService) updateAvatar(ctx context.Context, classification attendance.Classification, personID, url string) error {
	var err error
	switch classification {
	case attendance.ClassificationTeacher:
		err = s.teachers.UpdateAvatar(ctx, personID, url)
	default:
		err = s.students.UpdateAvatar(ctx, personID, url)
	}
	if err != nil {
		return translateNotFound(err)
	}
	return nil
}
