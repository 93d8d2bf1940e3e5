package ai

import "context"

// StudentProfile is a sample or extracted student record.
type StudentProfile struct {
	Name          string `json:"name"`
	RollNumber    string `json:"roll_number"`
	Grade         string `json:"grade"`
	Section       string `json:"section,omitempty"`
	ParentName    string `json:"parent_name,omitempty"`
	ParentContact string `json:"parent_contact,omitempty"`
	DateOfBirth   string `json:"dob,omitempty"`
	BloodGroup    string `json:"blood_group,omitempty"`
	Address       string `json:"address,omitempty"`
}

// CardImage is a photo of a physical ID card.
type CardImage struct {
	MimeType string
	Data     []byte
}

// ProfileGenerator produces student profiles from a language model.
type ProfileGenerator interface {
	GenerateStudents(ctx context.Context, count int) ([]StudentProfile, error)
	ExtractStudent(ctx context.Context, image CardImage) (StudentProfile, error)
}
