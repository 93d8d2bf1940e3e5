package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/models"
)

// ErrDuplicateAttendance reports that a record already exists for the person and date.
var ErrDuplicateAttendance = errors.New("attendance already recorded for person and date")

// AttendanceRepository stores the attendance log. Records are only ever inserted.
type AttendanceRepository interface {
	Append(ctx context.Context, record *models.AttendanceRecord) error
	ListAll(ctx context.Context) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error)
	GetByPersonDay(ctx context.Context, personID, date string) (models.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Append inserts record, returning ErrDuplicateAttendance when the person already has a
// record for that date.
func (r *attendanceRepository) Append(ctx context.Context, record *models.AttendanceRecord) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateAttendance
	}
	return nil
}

func (r *attendanceRepository) GetByPersonDay(ctx context.Context, personID, date string) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND calendar_date = ?", personID, date).
		First(&record).Error
	return record, err
}

func (r *attendanceRepository) ListAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepository) ListByDate(ctx context.Context, date string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("calendar_date = ?", date).
		Order("occurred_at ASC").
		Find(&records).Error
	return records, err
}

type attendanceSink struct {
	repo AttendanceRepository
}

// NewAttendanceSink adapts the repository into the ledger's durable sink.
func NewAttendanceSink(repo AttendanceRepository) attendance.Sink {
	return &attendanceSink{repo: repo}
}

// Append stores e. When another node already stored the person-day, the stored event is
// handed back to the ledger through attendance.RecordedElsewhereError.
func (s *attendanceSink) Append(ctx context.Context, e attendance.Event) error {
	record := models.NewAttendanceRecord(e)
	err := s.repo.Append(ctx, &record)
	if !errors.Is(err, ErrDuplicateAttendance) {
		return err
	}

	stored, lookupErr := s.repo.GetByPersonDay(ctx, e.PersonID, e.CalendarDate)
	if lookupErr != nil {
		return fmt.Errorf("load recorded attendance: %w", lookupErr)
	}
	return &attendance.RecordedElsewhereError{Existing: stored.Event()}
}
