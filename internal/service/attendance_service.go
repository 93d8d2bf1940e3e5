package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/internal/observability"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

var (
	// ErrInvalidDate indicates a calendar date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid calendar date")
	// ErrInvalidClassification indicates a person type other than STUDENT or TEACHER.
	ErrInvalidClassification = errors.New("invalid classification")
)

const (
	liveBufferSize     = 16
	defaultHistoryDays = 7
)

// AttendanceService records scans and serves attendance reports.
type AttendanceService interface {
	Scan(ctx context.Context, req dto.ScanRequest) (dto.ScanResponse, error)
	Partition(ctx context.Context, date, classification string) (dto.PartitionResponse, error)
	History(ctx context.Context, endDate string, days int, classification string) (dto.HistoryResponse, error)
	Overview(ctx context.Context) (dto.OverviewResponse, error)
	Subscribe() (<-chan dto.LiveScanEvent, func())
	Start(ctx context.Context)
}

// AttendanceDependencies groups the collaborators of the attendance service.
type AttendanceDependencies struct {
	Ledger      *attendance.Ledger
	Registry    *attendance.MemoryRegistry
	Config      *attendance.ConfigHolder
	Students    repository.StudentRepository
	Teachers    repository.TeacherRepository
	Classes     repository.ClassRepository
	Redis       *redis.Client
	NATS        *nats.Conn
	ChannelBase string
	CacheTTL    time.Duration
	MaxDays     int
}

type attendanceService struct {
	ledger      *attendance.Ledger
	aggregator  *attendance.Aggregator
	registry    *attendance.MemoryRegistry
	config      *attendance.ConfigHolder
	students    repository.StudentRepository
	teachers    repository.TeacherRepository
	classes     repository.ClassRepository
	cache       *reportCache
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	maxDays     int
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	broker      *liveBroker
	nodeID      string
	now         func() time.Time
}

type scanEnvelope struct {
	Source string            `json:"source"`
	Scan   dto.LiveScanEvent `json:"scan"`
	SentAt time.Time         `json:"sent_at"`
}

type liveBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.LiveScanEvent]struct{}
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(deps AttendanceDependencies, validate *validator.Validate, logger zerolog.Logger) AttendanceService {
	stream := ""
	subject := ""
	if deps.ChannelBase != "" {
		stream = deps.ChannelBase + ":attendance"
		subject = strings.ReplaceAll(deps.ChannelBase, ":", ".") + ".attendance"
	}

	maxDays := deps.MaxDays
	if maxDays <= 0 || maxDays > attendance.MaxSeriesDays {
		maxDays = attendance.MaxSeriesDays
	}

	log := logger.With().Str("component", "attendance_service").Logger()

	return &attendanceService{
		ledger:      deps.Ledger,
		aggregator:  attendance.NewAggregator(deps.Registry, deps.Ledger),
		registry:    deps.Registry,
		config:      deps.Config,
		students:    deps.Students,
		teachers:    deps.Teachers,
		classes:     deps.Classes,
		cache:       newReportCache(deps.Redis, deps.CacheTTL, log),
		redis:       deps.Redis,
		redisStream: stream,
		nats:        deps.NATS,
		natsSubject: subject,
		maxDays:     maxDays,
		validator:   validate,
		logger:      log,
		tracer:      otel.Tracer("github.com/noah-isme/vibecheck-api/internal/service/attendance"),
		broker:      &liveBroker{subscribers: make(map[chan dto.LiveScanEvent]struct{})},
		nodeID:      uuid.NewString(),
		now:         time.Now,
	}
}

func (s *attendanceService) Scan(ctx context.Context, req dto.ScanRequest) (dto.ScanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ScanResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "attendance.scan")
	defer span.End()

	outcome, err := s.ledger.Ingest(ctx, req.Identifier, s.now().UnixMilli())
	if err != nil {
		observability.ScanOutcomes().WithLabelValues("error", "").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest failed")
		return dto.ScanResponse{}, err
	}

	span.SetAttributes(attribute.String("attendance.outcome", string(outcome.Kind)))
	response := dto.ScanResponse{Result: string(outcome.Kind)}

	switch outcome.Kind {
	case attendance.OutcomeUnknownIdentifier:
		observability.ScanOutcomes().WithLabelValues(string(outcome.Kind), "").Inc()
		response.Message = "Unknown ID Card"
		return response, nil
	case attendance.OutcomeAlreadyRecorded:
		observability.ScanOutcomes().WithLabelValues(string(outcome.Kind), string(outcome.Event.Status)).Inc()
		person := s.summaryFor(ctx, outcome.Person)
		event := outcome.Event
		response.Message = fmt.Sprintf("%s is already present!", person.Name)
		response.Person = &person
		response.Event = &event
		return response, nil
	}

	observability.ScanOutcomes().WithLabelValues(string(outcome.Kind), string(outcome.Event.Status)).Inc()
	span.SetAttributes(
		attribute.String("attendance.status", string(outcome.Event.Status)),
		attribute.String("attendance.date", outcome.Event.CalendarDate),
	)

	person := s.summaryFor(ctx, outcome.Person)
	event := outcome.Event
	response.Message = fmt.Sprintf("Marked %s: %s", event.Status, person.Name)
	response.Person = &person
	response.Event = &event

	s.cache.invalidate(ctx)

	live := dto.LiveScanEvent{Message: response.Message, Event: event, Person: person}
	s.broker.broadcast(live)
	if err := s.publish(ctx, live); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish scan to broker")
	}

	s.logger.Info().
		Str("person_id", event.PersonID).
		Str("status", string(event.Status)).
		Str("date", event.CalendarDate).
		Msg("attendance recorded")

	return response, nil
}

func (s *attendanceService) Partition(ctx context.Context, date, rawType string) (dto.PartitionResponse, error) {
	classification, err := parseClassification(rawType)
	if err != nil {
		return dto.PartitionResponse{}, err
	}
	date, err = s.resolveDate(date)
	if err != nil {
		return dto.PartitionResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "attendance.partition", trace.WithAttributes(
		attribute.String("attendance.date", date),
		attribute.String("attendance.type", string(classification)),
	))
	defer span.End()

	partition := s.aggregator.PartitionForDay(date, classification)

	directory, err := s.directory(ctx, classification)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory lookup failed")
		return dto.PartitionResponse{}, err
	}

	return dto.PartitionResponse{
		Date:    date,
		Type:    string(classification),
		Present: s.entries(partition.Present, date, classification, directory, string(attendance.StatusPresent)),
		Late:    s.entries(partition.Late, date, classification, directory, string(attendance.StatusLate)),
		Absent:  s.entries(partition.Absent, date, classification, directory, "ABSENT"),
		Summary: summarize(partition),
	}, nil
}

func (s *attendanceService) History(ctx context.Context, endDate string, days int, rawType string) (dto.HistoryResponse, error) {
	classification, err := parseClassification(rawType)
	if err != nil {
		return dto.HistoryResponse{}, err
	}
	endDate, err = s.resolveDate(endDate)
	if err != nil {
		return dto.HistoryResponse{}, err
	}
	if days <= 0 {
		days = defaultHistoryDays
	}
	if days > s.maxDays {
		days = s.maxDays
	}

	ctx, span := s.tracer.Start(ctx, "attendance.history", trace.WithAttributes(
		attribute.String("attendance.end_date", endDate),
		attribute.Int("attendance.days", days),
	))
	defer span.End()

	generation, cacheable := s.cache.generation(ctx)
	key := historyCacheKey(generation, classification, endDate, days)
	var cached dto.HistoryResponse
	if cacheable && s.cache.get(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	series, err := s.aggregator.HistoricalSeries(endDate, days, classification)
	if err != nil {
		span.RecordError(err)
		return dto.HistoryResponse{}, fmt.Errorf("%w: %s", ErrInvalidDate, endDate)
	}

	loc := s.ledger.Location()
	points := make([]dto.HistoryPoint, 0, len(series))
	for _, day := range series {
		label := ""
		if t, err := attendance.ParseCalendarDate(day.Date, loc); err == nil {
			label = t.Weekday().String()[:3]
		}
		points = append(points, dto.HistoryPoint{
			Date:    day.Date,
			Day:     label,
			Present: day.Present,
			Late:    day.Late,
			Absent:  day.Absent,
		})
	}

	response := dto.HistoryResponse{
		EndDate: endDate,
		Days:    days,
		Type:    string(classification),
		Series:  points,
	}
	if cacheable {
		s.cache.set(ctx, key, response)
	}

	return response, nil
}

func (s *attendanceService) Overview(ctx context.Context) (dto.OverviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.overview")
	defer span.End()

	classes, err := s.classes.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.OverviewResponse{}, err
	}

	cfg := s.config.Get()
	today := s.today()
	partition := s.aggregator.PartitionForDay(today, attendance.ClassificationStudent)

	return dto.OverviewResponse{
		SchoolName: cfg.Name,
		StartTime:  cfg.StartTime,
		Date:       today,
		Students:   s.registry.Count(attendance.ClassificationStudent),
		Teachers:   s.registry.Count(attendance.ClassificationTeacher),
		Classes:    classes,
		Today:      summarize(partition),
	}, nil
}

func (s *attendanceService) Subscribe() (<-chan dto.LiveScanEvent, func()) {
	channel := make(chan dto.LiveScanEvent, liveBufferSize)
	s.broker.subscribe(channel)
	observability.LiveClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.LiveClientsActive().Dec()
		})
	}

	return channel, cleanup
}

// Start consumes scans published by other nodes. NATS is preferred when both brokers are configured.
func (s *attendanceService) Start(ctx context.Context) {
	switch {
	case s.nats != nil && s.natsSubject != "":
		go s.consumeNATS(ctx)
	case s.redis != nil && s.redisStream != "":
		go s.consumeRedis(ctx)
	}
}

func (s *attendanceService) publish(ctx context.Context, scan dto.LiveScanEvent) error {
	payload, err := json.Marshal(scanEnvelope{
		Source: s.nodeID,
		Scan:   scan,
		SentAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.nats != nil && s.natsSubject != "" {
		return s.nats.Publish(s.natsSubject, payload)
	}
	if s.redis != nil && s.redisStream != "" {
		return s.redis.Publish(ctx, s.redisStream, payload).Err()
	}
	return nil
}

func (s *attendanceService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("attendance redis subscription closed")
			return
		}
		s.handleRemote([]byte(msg.Payload))
	}
}

func (s *attendanceService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleRemote(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats attendance subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain attendance nats subscription")
		}
	}()
}

// handleRemote folds a scan accepted by another node into the local ledger and feed.
func (s *attendanceService) handleRemote(payload []byte) {
	var envelope scanEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid scan event payload")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}

	if dropped := s.ledger.Merge([]attendance.Event{envelope.Scan.Event}); dropped > 0 {
		return
	}
	s.broker.broadcast(envelope.Scan)
}

func (s *attendanceService) summaryFor(ctx context.Context, person attendance.Person) dto.PersonSummary {
	var err error
	switch person.Classification {
	case attendance.ClassificationStudent:
		student, lookupErr := s.students.GetByID(ctx, person.ID)
		if lookupErr == nil {
			return dto.StudentSummary(student)
		}
		err = lookupErr
	case attendance.ClassificationTeacher:
		teacher, lookupErr := s.teachers.GetByID(ctx, person.ID)
		if lookupErr == nil {
			return dto.TeacherSummary(teacher)
		}
		err = lookupErr
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn().Err(err).Str("person_id", person.ID).Msg("failed to load person details")
	}
	return dto.PersonSummary{ID: person.ID, Name: person.DisplayName, Type: string(person.Classification)}
}

func (s *attendanceService) directory(ctx context.Context, classification attendance.Classification) (map[string]dto.PersonSummary, error) {
	result := make(map[string]dto.PersonSummary)
	switch classification {
	case attendance.ClassificationTeacher:
		teachers, err := s.teachers.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range teachers {
			result[t.ID] = dto.TeacherSummary(t)
		}
	default:
		students, err := s.students.List(ctx, repository.StudentFilter{})
		if err != nil {
			return nil, err
		}
		for _, st := range students {
			result[st.ID] = dto.StudentSummary(st)
		}
	}
	return result, nil
}

func (s *attendanceService) entries(ids []string, date string, classification attendance.Classification, directory map[string]dto.PersonSummary, status string) []dto.PartitionEntry {
	entries := make([]dto.PartitionEntry, 0, len(ids))
	for _, id := range ids {
		summary, ok := directory[id]
		if !ok {
			summary = dto.PersonSummary{ID: id, Name: id, Type: string(classification)}
			if person, known := s.registry.Resolve(id); known {
				summary.Name = person.DisplayName
			}
		}

		entry := dto.PartitionEntry{PersonSummary: summary, Status: status}
		if event, recorded := s.ledger.Lookup(id, date); recorded {
			at := event.OccurredAt
			entry.RecordedAt = &at
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *attendanceService) today() string {
	return attendance.CalendarDate(s.now().UnixMilli(), s.ledger.Location())
}

func (s *attendanceService) resolveDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.today(), nil
	}
	parsed, err := attendance.ParseCalendarDate(raw, s.ledger.Location())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDate, raw)
	}
	return parsed.Format(attendance.DateLayout), nil
}

func parseClassification(raw string) (attendance.Classification, error) {
	if strings.TrimSpace(raw) == "" {
		return attendance.ClassificationStudent, nil
	}
	classification, err := attendance.ParseClassification(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidClassification, raw)
	}
	return classification, nil
}

func summarize(p attendance.Partition) dto.PartitionSummary {
	return dto.PartitionSummary{
		PresentCount:  len(p.Present),
		LateCount:     len(p.Late),
		AttendedCount: len(p.Present) + len(p.Late),
		AbsentCount:   len(p.Absent),
		Population:    p.Known,
	}
}

func (b *liveBroker) subscribe(ch chan dto.LiveScanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *liveBroker) unsubscribe(ch chan dto.LiveScanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast never blocks; slow subscribers miss events.
func (b *liveBroker) broadcast(event dto.LiveScanEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
