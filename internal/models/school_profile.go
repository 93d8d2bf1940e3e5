package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
)

// SchoolProfileID is the primary key of the single school profile row.
const SchoolProfileID uint = 1

// SchoolProfile stores the school details and the attendance start time.
type SchoolProfile struct {
	ID              uint              `gorm:"primaryKey" json:"-"`
	Name            string            `gorm:"size:255;not null" json:"name"`
	Address         string            `gorm:"size:512" json:"address"`
	EstablishedYear string            `gorm:"size:8" json:"established_year"`
	LogoURL         string            `gorm:"size:1024" json:"logo_url"`
	StartTime       string            `gorm:"size:5;not null;default:'08:00'" json:"start_time"`
	Metadata        datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Config projects the profile into the attendance configuration.
func (p SchoolProfile) Config() attendance.SchoolConfig {
	return attendance.SchoolConfig{
		StartTime:       p.StartTime,
		Name:            p.Name,
		Address:         p.Address,
		EstablishedYear: p.EstablishedYear,
		LogoURL:         p.LogoURL,
	}
}
