package dto

import (
	"time"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

// ClassCreateRequest registers a class section.
type ClassCreateRequest struct {
	Grade          string  `json:"grade" validate:"required,max=32"`
	Section        string  `json:"section" validate:"required,max=64"`
	ClassTeacherID *string `json:"class_teacher_id" validate:"omitempty,max=36"`
}

// ClassResponse is the API representation of a class section.
type ClassResponse struct {
	ID             string    `json:"id"`
	Grade          string    `json:"grade"`
	Section        string    `json:"section"`
	Label          string    `json:"label"`
	ClassTeacherID *string   `json:"class_teacher_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewClassResponse maps a class model.
func NewClassResponse(c models.ClassSection) ClassResponse {
	return ClassResponse{
		ID:             c.ID,
		Grade:          c.Grade,
		Section:        c.Section,
		Label:          c.Grade + "-" + c.Section,
		ClassTeacherID: c.ClassTeacherID,
		CreatedAt:      c.CreatedAt,
	}
}

// NewClassResponseSlice maps a list of classes.
func NewClassResponseSlice(classes []models.ClassSection) []ClassResponse {
	result := make([]ClassResponse, 0, len(classes))
	for _, c := range classes {
		result = append(result, NewClassResponse(c))
	}
	return result
}

// SchoolUpdateRequest replaces the school profile wholesale.
type SchoolUpdateRequest struct {
	Name            string                 `json:"name" validate:"required,max=255"`
	Address         string                 `json:"address" validate:"omitempty,max=512"`
	EstablishedYear string                 `json:"established_year" validate:"omitempty,numeric,len=4"`
	LogoURL         string                 `json:"logo_url" validate:"omitempty,url,max=1024"`
	StartTime       string                 `json:"start_time" validate:"omitempty,datetime=15:04"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// SchoolResponse is the API representation of the school profile.
type SchoolResponse struct {
	Name            string                 `json:"name"`
	Address         string                 `json:"address"`
	EstablishedYear string                 `json:"established_year"`
	LogoURL         string                 `json:"logo_url"`
	StartTime       string                 `json:"start_time"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewSchoolResponse maps the school profile.
func NewSchoolResponse(p models.SchoolProfile) SchoolResponse {
	return SchoolResponse{
		Name:            p.Name,
		Address:         p.Address,
		EstablishedYear: p.EstablishedYear,
		LogoURL:         p.LogoURL,
		StartTime:       p.StartTime,
		Metadata:        p.Metadata,
		UpdatedAt:       p.UpdatedAt,
	}
}

// CardResponse is the printable identity card of a person.
type CardResponse struct {
	Person        PersonSummary `json:"person"`
	SchoolName    string        `json:"school_name"`
	SchoolAddress string        `json:"school_address"`
	SchoolLogoURL string        `json:"school_logo_url"`
	QRPayload     string        `json:"qr_payload"`
	QRImagePath   string        `json:"qr_image_path"`
}

// SeedResult reports what the demo seeding created.
type SeedResult struct {
	SchoolCreated  bool `json:"school_created"`
	ClassesCreated int  `json:"classes_created"`
}
