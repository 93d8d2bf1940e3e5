// Package attendance holds the attendance decision engine: identity resolution,
// late/on-time classification, the append-only ledger with its one-record-per-person-per-day
// guarantee, and the daily and historical aggregates derived from it.
//
// Everything in this package is in-memory and synchronous. Persistence, transport and
// presentation live in the service and handler layers.
package attendance

import (
	"fmt"
	"strings"
)

// Classification distinguishes the two kinds of people tracked by the registry.
type Classification string

const (
	ClassificationStudent Classification = "STUDENT"
	ClassificationTeacher Classification = "TEACHER"
)

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	return c == ClassificationStudent || c == ClassificationTeacher
}

// ParseClassification normalises user input such as "student" or " Teacher ".
func ParseClassification(raw string) (Classification, error) {
	c := Classification(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown classification %q", raw)
	}
	return c, nil
}

// Status is the outcome recorded for an accepted scan.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
)

// Person is the registry's view of a student or teacher.
type Person struct {
	ID             string
	Classification Classification
	DisplayName    string
}

// Event is a single attendance record. Events are never edited once appended.
type Event struct {
	ID             string         `json:"id"`
	PersonID       string         `json:"person_id"`
	Classification Classification `json:"classification"`
	Status         Status         `json:"status"`
	OccurredAt     int64          `json:"occurred_at"`
	CalendarDate   string         `json:"calendar_date"`
}

type dayKey struct {
	personID string
	date     string
}

func (e Event) key() dayKey {
	return dayKey{personID: e.PersonID, date: e.CalendarDate}
}
