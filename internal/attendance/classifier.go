package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultStartTime applies whenever no usable start time is configured.
const DefaultStartTime = "08:00"

// ParseStartTime parses a 24-hour "HH:MM" value.
func ParseStartTime(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 ||
		!allDigits(parts[0]) || !allDigits(parts[1]) {
		return 0, 0, fmt.Errorf("start time %q is not HH:MM", raw)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("start time %q has an invalid hour", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("start time %q has an invalid minute", raw)
	}
	return hour, minute, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// EffectiveStartTime returns the start time the classifier will actually use for raw,
// and whether it had to fall back to DefaultStartTime.
func EffectiveStartTime(raw string) (string, bool) {
	hour, minute, err := ParseStartTime(raw)
	if err != nil {
		return DefaultStartTime, true
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), false
}

// Cutoff returns the instant on localDate at which scans stop being on time.
func Cutoff(startTime, localDate string, loc *time.Location) (time.Time, error) {
	day, err := ParseCalendarDate(localDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	effective, _ := EffectiveStartTime(startTime)
	hour, minute, _ := ParseStartTime(effective)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// Classify decides PRESENT or LATE for a scan at nowMillis on localDate.
// A scan exactly at the cutoff is PRESENT; anything strictly after it is LATE.
// Classification never fails: a malformed start time falls back to DefaultStartTime and an
// unparsable localDate is replaced by the calendar date of nowMillis.
func Classify(nowMillis int64, startTime, localDate string, loc *time.Location) Status {
	cutoff, err := Cutoff(startTime, localDate, loc)
	if err != nil {
		cutoff, _ = Cutoff(startTime, CalendarDate(nowMillis, loc), loc)
	}
	if nowMillis > cutoff.UnixMilli() {
		return StatusLate
	}
	return StatusPresent
}
