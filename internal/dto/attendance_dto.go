package dto

import "github.com/noah-isme/vibecheck-api/internal/attendance"

// ScanRequest is the payload submitted by a scanning station.
type ScanRequest struct {
	Identifier string `json:"identifier" validate:"max=128"`
}

// PersonSummary is the display form of a registered person.
type PersonSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
}

// ScanResponse reports how a scan was handled.
type ScanResponse struct {
	Result  string            `json:"result"`
	Message string            `json:"message"`
	Event   *attendance.Event `json:"event,omitempty"`
	Person  *PersonSummary    `json:"person,omitempty"`
}

// PartitionEntry is one person in a daily partition.
type PartitionEntry struct {
	PersonSummary
	Status     string `json:"status"`
	RecordedAt *int64 `json:"recorded_at,omitempty"`
}

// PartitionSummary holds the headline counts of a daily partition.
type PartitionSummary struct {
	PresentCount  int `json:"present_count"`
	LateCount     int `json:"late_count"`
	AttendedCount int `json:"attended_count"`
	AbsentCount   int `json:"absent_count"`
	Population    int `json:"population"`
}

// PartitionResponse is the present/late/absent breakdown of one day.
type PartitionResponse struct {
	Date    string           `json:"date"`
	Type    string           `json:"type"`
	Present []PartitionEntry `json:"present"`
	Late    []PartitionEntry `json:"late"`
	Absent  []PartitionEntry `json:"absent"`
	Summary PartitionSummary `json:"summary"`
}

// HistoryPoint is one day of the historical series.
type HistoryPoint struct {
	Date    string `json:"date"`
	Day     string `json:"day"`
	Present int    `json:"present"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
}

// HistoryResponse is the attendance series ending on EndDate, oldest day first.
type HistoryResponse struct {
	EndDate string         `json:"end_date"`
	Days    int            `json:"days"`
	Type    string         `json:"type"`
	Series  []HistoryPoint `json:"series"`
}

// OverviewResponse backs the dashboard header.
type OverviewResponse struct {
	SchoolName string           `json:"school_name"`
	StartTime  string           `json:"start_time"`
	Date       string           `json:"date"`
	Students   int              `json:"students"`
	Teachers   int              `json:"teachers"`
	Classes    int64            `json:"classes"`
	Today      PartitionSummary `json:"today"`
}

// LiveScanEvent is pushed to live feed subscribers for every accepted scan.
type LiveScanEvent struct {
	Message string           `json:"message"`
	Event   attendance.Event `json:"event"`
	Person  PersonSummary    `json:"person"`
}
