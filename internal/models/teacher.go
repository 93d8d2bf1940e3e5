package models

import (
	"time"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
)

// Teacher is a staff member whose identity card can be scanned.
type Teacher struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Subject       string    `gorm:"size:128" json:"subject"`
	Contact       string    `gorm:"size:64" json:"contact"`
	Email         string    `gorm:"size:255" json:"email"`
	Qualification string    `gorm:"size:255" json:"qualification"`
	AvatarURL     string    `gorm:"size:1024" json:"avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Person returns the registry entry for the teacher.
func (t Teacher) Person() attendance.Person {
	return attendance.Person{ID: t.ID, Classification: attendance.ClassificationTeacher, DisplayName: t.Name}
}
