package attendance

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// MaxSeriesDays bounds DateRange so a bad query cannot allocate unbounded series.
const MaxSeriesDays = 366

func locationOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// CalendarDate returns the YYYY-MM-DD date of the instant in loc.
func CalendarDate(epochMillis int64, loc *time.Location) string {
	return time.UnixMilli(epochMillis).In(locationOrLocal(loc)).Format(DateLayout)
}

// ParseCalendarDate parses a YYYY-MM-DD string as local midnight in loc.
func ParseCalendarDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, locationOrLocal(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", date, err)
	}
	return t, nil
}

// DateRange lists numDays consecutive calendar dates ending at endDate, oldest first.
// Days are stepped on the calendar rather than by 24h so DST transitions never skip or
// repeat a date.
func DateRange(endDate string, numDays int, loc *time.Location) ([]string, error) {
	end, err := ParseCalendarDate(endDate, loc)
	if err != nil {
		return nil, err
	}
	if numDays <= 0 {
		return []string{}, nil
	}
	if numDays > MaxSeriesDays {
		numDays = MaxSeriesDays
	}

	dates := make([]string, 0, numDays)
	for i := numDays - 1; i >= 0; i-- {
		day := time.Date(end.Year(), end.Month(), end.Day()-i, 0, 0, 0, 0, end.Location())
		dates = append(dates, day.Format(DateLayout))
	}
	return dates, nil
}
