package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

// StateDependencies lists what LoadState reads from and writes into.
type StateDependencies struct {
	Students         repository.StudentRepository
	Teachers         repository.TeacherRepository
	School           repository.SchoolRepository
	Attendance       repository.AttendanceRepository
	Registry         *attendance.MemoryRegistry
	Config           *attendance.ConfigHolder
	Ledger           *attendance.Ledger
	DefaultStartTime string
}

// StateSummary reports what was loaded.
type StateSummary struct {
	Students          int
	Teachers          int
	Events            int
	DroppedEvents     int
	ProfileExists     bool
	StartTime         string
	StartTimeFellBack bool
}

// LoadState hydrates the registry, configuration and ledger from storage. It must complete
// before the first scan or report is served.
func LoadState(ctx context.Context, deps StateDependencies, logger zerolog.Logger) (StateSummary, error) {
	log := logger.With().Str("component", "state_loader").Logger()
	summary := StateSummary{}

	students, err := deps.Students.List(ctx, repository.StudentFilter{})
	if err != nil {
		return summary, fmt.Errorf("load students: %w", err)
	}
	teachers, err := deps.Teachers.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("load teachers: %w", err)
	}

	people := make([]attendance.Person, 0, len(students)+len(teachers))
	for _, s := range students {
		people = append(people, s.Person())
	}
	for _, t := range teachers {
		people = append(people, t.Person())
	}
	deps.Registry.Replace(people)
	summary.Students = len(students)
	summary.Teachers = len(teachers)

	cfg := attendance.SchoolConfig{StartTime: deps.DefaultStartTime}
	profile, err := deps.School.Get(ctx)
	switch {
	case err == nil:
		cfg = profile.Config()
		summary.ProfileExists = true
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return summary, fmt.Errorf("load school profile: %w", err)
	}

	effective, fellBack := attendance.EffectiveStartTime(cfg.StartTime)
	if fellBack {
		log.Warn().Str("start_time", cfg.StartTime).Str("effective", effective).Msg("school start time unparseable, using default")
	}
	cfg.StartTime = effective
	deps.Config.Replace(cfg)
	summary.StartTime = effective
	summary.StartTimeFellBack = fellBack

	records, err := deps.Attendance.ListAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("load attendance log: %w", err)
	}
	events := make([]attendance.Event, 0, len(records))
	for _, record := range records {
		events = append(events, record.Event())
	}
	summary.DroppedEvents = deps.Ledger.Restore(events)
	summary.Events = len(events) - summary.DroppedEvents
	if summary.DroppedEvents > 0 {
		log.Warn().Int("dropped", summary.DroppedEvents).Msg("duplicate person-day records ignored while restoring ledger")
	}

	log.Info().
		Int("students", summary.Students).
		Int("teachers", summary.Teachers).
		Int("events", summary.Events).
		Str("start_time", summary.StartTime).
		Msg("attendance state loaded")

	return summary, nil
}
