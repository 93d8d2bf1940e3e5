package models

import (
	"time"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
)

// Student is a learner whose identity card can be scanned.
type Student struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	RollNumber    string    `gorm:"size:64;not null;index" json:"roll_number"`
	ClassID       *string   `gorm:"size:36;index" json:"class_id"`
	Grade         string    `gorm:"size:64" json:"grade"`
	Section       string    `gorm:"size:64" json:"section"`
	ParentName    string    `gorm:"size:255" json:"parent_name"`
	ParentContact string    `gorm:"size:64" json:"parent_contact"`
	DateOfBirth   string    `gorm:"size:16" json:"dob"`
	BloodGroup    string    `gorm:"size:8" json:"blood_group"`
	Address       string    `gorm:"size:512" json:"address"`
	AvatarURL     string    `gorm:"size:1024" json:"avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Person returns the registry entry for the student.
func (s Student) Person() attendance.Person {
	return attendance.Person{ID: s.ID, Classification: attendance.ClassificationStudent, DisplayName: s.Name}
}
