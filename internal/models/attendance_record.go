package models

import (
	"time"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
)

// AttendanceRecord is the stored form of an attendance event. The composite unique index
// backs the one-record-per-person-per-day rule at the database level.
type AttendanceRecord struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PersonID       string    `gorm:"size:36;not null;uniqueIndex:idx_attendance_person_day" json:"person_id"`
	CalendarDate   string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_person_day;index" json:"date"`
	Classification string    `gorm:"size:16;not null;index" json:"type"`
	Status         string    `gorm:"size:16;not null" json:"status"`
	OccurredAt     int64     `gorm:"not null" json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAttendanceRecord converts a ledger event for storage.
func NewAttendanceRecord(e attendance.Event) AttendanceRecord {
	return AttendanceRecord{
		ID:             e.ID,
		PersonID:       e.PersonID,
		CalendarDate:   e.CalendarDate,
		Classification: string(e.Classification),
		Status:         string(e.Status),
		OccurredAt:     e.OccurredAt,
	}
}

// Event converts the stored record back into a ledger event.
func (r AttendanceRecord) Event() attendance.Event {
	return attendance.Event{
		ID:             r.ID,
		PersonID:       r.PersonID,
		Classification: attendance.Classification(r.Classification),
		Status:         attendance.Status(r.Status),
		OccurredAt:     r.OccurredAt,
		CalendarDate:   r.CalendarDate,
	}
}
