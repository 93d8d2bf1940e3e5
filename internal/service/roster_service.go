package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

var (
	// ErrPersonNotFound indicates no student or teacher has the identifier.
	ErrPersonNotFound = errors.New("person not found")
	// ErrClassNotResolved indicates a student was submitted without a class or grade.
	ErrClassNotResolved = errors.New("class_id or grade is required")
	// ErrEmptyAfterSanitize indicates a required text field held nothing but markup.
	ErrEmptyAfterSanitize = errors.New("value empty after sanitization")
)

const defaultSection = "A"

// RosterService registers and removes the people whose cards can be scanned.
type RosterService interface {
	CreateStudent(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	ListStudents(ctx context.Context, classID, search string) ([]dto.StudentResponse, error)
	GetStudent(ctx context.Context, id string) (dto.StudentResponse, error)
	DeleteStudent(ctx context.Context, id string) error
	BulkImportStudents(ctx context.Context, req dto.BulkImportRequest) (dto.BulkImportResponse, error)
	CreateTeacher(ctx context.Context, req dto.TeacherCreateRequest) (dto.TeacherResponse, error)
	ListTeachers(ctx context.Context) ([]dto.TeacherResponse, error)
	GetTeacher(ctx context.Context, id string) (dto.TeacherResponse, error)
	DeleteTeacher(ctx context.Context, id string) error
}

type rosterService struct {
	students  repository.StudentRepository
	teachers  repository.TeacherRepository
	classes   repository.ClassRepository
	registry  *attendance.MemoryRegistry
	cache     *reportCache
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	newID     func() string
}

// NewRosterService constructs the roster service. Mutations hit storage first, then the registry.
func NewRosterService(students repository.StudentRepository, teachers repository.TeacherRepository, classes repository.ClassRepository, registry *attendance.MemoryRegistry, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger) RosterService {
	log := logger.With().Str("component", "roster_service").Logger()
	return &rosterService{
		students:  students,
		teachers:  teachers,
		classes:   classes,
		registry:  registry,
		cache:     newReportCache(cache, 0, log),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log,
		newID:     uuid.NewString,
	}
}

func (s *rosterService) CreateStudent(ctx context.Context, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	name := s.clean(req.Name)
	roll := s.clean(req.RollNumber)
	if name == "" || roll == "" {
		return dto.StudentResponse{}, ErrEmptyAfterSanitize
	}

	student := models.Student{
		ID:            s.newID(),
		Name:          name,
		RollNumber:    roll,
		ParentName:    s.clean(req.ParentName),
		ParentContact: s.clean(req.ParentContact),
		DateOfBirth:   strings.TrimSpace(req.DateOfBirth),
		BloodGroup:    s.clean(req.BloodGroup),
		Address:       s.clean(req.Address),
		AvatarURL:     DefaultAvatarURL(name),
	}

	switch classID := strings.TrimSpace(req.ClassID); {
	case classID != "":
		class, err := s.classes.GetByID(ctx, classID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.StudentResponse{}, ErrClassNotFound
			}
			return dto.StudentResponse{}, err
		}
		student.ClassID = &class.ID
		student.Grade = class.GradeLabel()
		student.Section = class.Section
	case strings.TrimSpace(req.Grade) != "":
		student.Grade = fmt.Sprintf("Class %s", s.clean(req.Grade))
		student.Section = s.clean(req.Section)
		if student.Section == "" {
			student.Section = defaultSection
		}
	default:
		return dto.StudentResponse{}, ErrClassNotResolved
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}
	s.registry.Put(student.Person())
	s.cache.invalidate(ctx)

	s.logger.Info().Str("student_id", student.ID).Msg("student registered")
	return dto.NewStudentResponse(student), nil
}

func (s *rosterService) ListStudents(ctx context.Context, classID, search string) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, repository.StudentFilter{
		ClassID: strings.TrimSpace(classID),
		Search:  search,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *rosterService) GetStudent(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, translateNotFound(err)
	}
	return dto.NewStudentResponse(student), nil
}

// DeleteStudent removes the student from the roster. Past attendance records are kept.
func (s *rosterService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return translateNotFound(err)
	}
	s.registry.Remove(id)
	s.cache.invalidate(ctx)
	s.logger.Info().Str("student_id", id).Msg("student removed")
	return nil
}

func (s *rosterService) BulkImportStudents(ctx context.Context, req dto.BulkImportRequest) (dto.BulkImportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BulkImportResponse{}, err
	}

	classes, err := s.classes.List(ctx)
	if err != nil {
		return dto.BulkImportResponse{}, err
	}

	response := dto.BulkImportResponse{
		Created: make([]dto.StudentResponse, 0),
		Skipped: make([]dto.BulkSkippedLine, 0),
	}
	students := make([]models.Student, 0)

	for idx, raw := range strings.Split(req.Data, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			response.Skipped = append(response.Skipped, dto.BulkSkippedLine{Line: idx + 1, Raw: line, Reason: "expected name, roll number, grade"})
			continue
		}
		for i := range parts {
			parts[i] = s.clean(parts[i])
		}

		name, roll, grade := parts[0], parts[1], parts[2]
		section := ""
		if len(parts) > 3 {
			section = parts[3]
		}
		if name == "" || roll == "" {
			response.Skipped = append(response.Skipped, dto.BulkSkippedLine{Line: idx + 1, Raw: line, Reason: "name and roll number are required"})
			continue
		}

		student := models.Student{
			ID:         s.newID(),
			Name:       name,
			RollNumber: roll,
			AvatarURL:  DefaultAvatarURL(name),
		}
		if class, ok := matchClass(classes, grade, section); ok {
			student.ClassID = &class.ID
			student.Grade = class.GradeLabel()
			student.Section = class.Section
		} else {
			student.Grade = fmt.Sprintf("Class %s", grade)
			student.Section = section
			if student.Section == "" {
				student.Section = defaultSection
			}
		}
		students = append(students, student)
	}

	if err := s.students.CreateBatch(ctx, students); err != nil {
		return dto.BulkImportResponse{}, err
	}
	for _, student := range students {
		s.registry.Put(student.Person())
		response.Created = append(response.Created, dto.NewStudentResponse(student))
	}
	if len(students) > 0 {
		s.cache.invalidate(ctx)
	}

	s.logger.Info().Int("created", len(response.Created)).Int("skipped", len(response.Skipped)).Msg("bulk student import finished")
	return response, nil
}

func (s *rosterService) CreateTeacher(ctx context.Context, req dto.TeacherCreateRequest) (dto.TeacherResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TeacherResponse{}, err
	}

	name := s.clean(req.Name)
	if name == "" {
		return dto.TeacherResponse{}, ErrEmptyAfterSanitize
	}

	teacher := models.Teacher{
		ID:            s.newID(),
		Name:          name,
		Subject:       s.clean(req.Subject),
		Contact:       s.clean(req.Contact),
		Email:         strings.TrimSpace(req.Email),
		Qualification: s.clean(req.Qualification),
		AvatarURL:     DefaultAvatarURL(name),
	}

	if err := s.teachers.Create(ctx, &teacher); err != nil {
		return dto.TeacherResponse{}, err
	}
	s.registry.Put(teacher.Person())
	s.cache.invalidate(ctx)

	s.logger.Info().Str("teacher_id", teacher.ID).Msg("teacher registered")
	return dto.NewTeacherResponse(teacher), nil
}

func (s *rosterService) ListTeachers(ctx context.Context) ([]dto.TeacherResponse, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTeacherResponseSlice(teachers), nil
}

func (s *rosterService) GetTeacher(ctx context.Context, id string) (dto.TeacherResponse, error) {
	teacher, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		return dto.TeacherResponse{}, translateNotFound(err)
	}
	return dto.NewTeacherResponse(teacher), nil
}

func (s *rosterService) DeleteTeacher(ctx context.Context, id string) error {
	if err := s.teachers.Delete(ctx, id); err != nil {
		return translateNotFound(err)
	}
	s.registry.Remove(id)
	s.cache.invalidate(ctx)
	s.logger.Info().Str("teacher_id", id).Msg("teacher removed")
	return nil
}

func (s *rosterService) clean(value string) string {
	return sanitizeText(s.sanitizer, value)
}

// matchClass prefers an exact grade and section match, then any class of the grade.
func matchClass(classes []models.ClassSection, grade, section string) (models.ClassSection, bool) {
	if section != "" {
		for _, class := range classes {
			if class.Grade == grade && class.Section == section {
				return class, true
			}
		}
	}
	for _, class := range classes {
		if class.Grade == grade {
			return class, true
		}
	}
	return models.ClassSection{}, false
}

// DefaultAvatarURL renders the placeholder avatar used until a photo is uploaded.
func DefaultAvatarURL(name string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=e2e8f0&color=64748b", escaped)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPersonNotFound
	}
	return err
}
