package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

// StudentCreateRequest registers a student. Either ClassID or Grade must be supplied.
type StudentCreateRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	RollNumber    string `json:"roll_number" validate:"required,max=64"`
	ClassID       string `json:"class_id" validate:"omitempty,max=36"`
	Grade         string `json:"grade" validate:"omitempty,max=32"`
	Section       string `json:"section" validate:"omitempty,max=64"`
	ParentName    string `json:"parent_name" validate:"omitempty,max=255"`
	ParentContact string `json:"parent_contact" validate:"omitempty,max=64"`
	DateOfBirth   string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	BloodGroup    string `json:"blood_group" validate:"omitempty,max=8"`
	Address       string `json:"address" validate:"omitempty,max=512"`
}

// StudentResponse is the API representation of a student.
type StudentResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	RollNumber    string    `json:"roll_number"`
	ClassID       *string   `json:"class_id"`
	Grade         string    `json:"grade"`
	Section       string    `json:"section"`
	ParentName    string    `json:"parent_name"`
	ParentContact string    `json:"parent_contact"`
	DateOfBirth   string    `json:"dob"`
	BloodGroup    string    `json:"blood_group"`
	Address       string    `json:"address"`
	AvatarURL     string    `json:"avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewStudentResponse maps a student model.
func NewStudentResponse(s models.Student) StudentResponse {
	return StudentResponse{
		ID:            s.ID,
		Name:          s.Name,
		RollNumber:    s.RollNumber,
		ClassID:       s.ClassID,
		Grade:         s.Grade,
		Section:       s.Section,
		ParentName:    s.ParentName,
		ParentContact: s.ParentContact,
		DateOfBirth:   s.DateOfBirth,
		BloodGroup:    s.BloodGroup,
		Address:       s.Address,
		AvatarURL:     s.AvatarURL,
		CreatedAt:     s.CreatedAt,
	}
}

// NewStudentResponseSlice maps a list of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	result := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		result = append(result, NewStudentResponse(s))
	}
	return result
}

// StudentSummary builds the display form used by reports and cards.
func StudentSummary(s models.Student) PersonSummary {
	return PersonSummary{
		ID:        s.ID,
		Name:      s.Name,
		Type:      "STUDENT",
		AvatarURL: s.AvatarURL,
		Subtitle:  studentSubtitle(s),
	}
}

func studentSubtitle(s models.Student) string {
	parts := make([]string, 0, 2)
	if s.RollNumber != "" {
		parts = append(parts, fmt.Sprintf("Roll %s", s.RollNumber))
	}
	class := strings.TrimSpace(strings.TrimSpace(s.Grade) + " " + strings.TrimSpace(s.Section))
	if class != "" {
		parts = append(parts, class)
	}
	return strings.Join(parts, " · ")
}

// TeacherCreateRequest registers a teacher.
type TeacherCreateRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Subject       string `json:"subject" validate:"omitempty,max=128"`
	Contact       string `json:"contact" validate:"omitempty,max=64"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	Qualification string `json:"qualification" validate:"omitempty,max=255"`
}

// TeacherResponse is the API representation of a teacher.
type TeacherResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Subject       string    `json:"subject"`
	Contact       string    `json:"contact"`
	Email         string    `json:"email"`
	Qualification string    `json:"qualification"`
	AvatarURL     string    `json:"avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTeacherResponse maps a teacher model.
func NewTeacherResponse(t models.Teacher) TeacherResponse {
	return TeacherResponse{
		ID:            t.ID,
		Name:          t.Name,
		Subject:       t.Subject,
		Contact:       t.Contact,
		Email:         t.Email,
		Qualification: t.Qualification,
		AvatarURL:     t.AvatarURL,
		CreatedAt:     t.CreatedAt,
	}
}

// NewTeacherResponseSlice maps a list of teachers.
func NewTeacherResponseSlice(teachers []models.Teacher) []TeacherResponse {
	result := make([]TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		result = append(result, NewTeacherResponse(t))
	}
	return result
}

// TeacherSummary builds the display form used by reports and cards.
func TeacherSummary(t models.Teacher) PersonSummary {
	return PersonSummary{
		ID:        t.ID,
		Name:      t.Name,
		Type:      "TEACHER",
		AvatarURL: t.AvatarURL,
		Subtitle:  t.Subject,
	}
}

// BulkImportRequest carries one student per line: "Name, RollNo, Grade, Section".
type BulkImportRequest struct {
	Data string `json:"data" validate:"required"`
}

// BulkSkippedLine explains why an input line was not imported.
type BulkSkippedLine struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// BulkImportResponse lists the created students and the skipped lines.
type BulkImportResponse struct {
	Created []StudentResponse `json:"created"`
	Skipped []BulkSkippedLine `json:"skipped"`
}

// SuggestionRequest asks for generated sample student profiles.
type SuggestionRequest struct {
	Count int `json:"count" validate:"min=1,max=10"`
}

// StudentSuggestion is a generated sample profile.
type StudentSuggestion struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Grade      string `json:"grade"`
}

// AvatarResponse describes a stored avatar.
type AvatarResponse struct {
	PersonID  string `json:"person_id"`
	AvatarURL string `json:"avatar_url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}
