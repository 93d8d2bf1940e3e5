package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink makes an accepted event durable. It is called while the ledger lock is held and
// before the event becomes visible; a failing sink aborts the ingest.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// RecordedElsewhereError is returned by a Sink when the store already holds an event for the
// same person and date, written by another process sharing it.
type RecordedElsewhereError struct {
	Existing Event
}

func (e *RecordedElsewhereError) Error() string {
	return fmt.Sprintf("attendance for %s on %s already recorded", e.Existing.PersonID, e.Existing.CalendarDate)
}

// StartTimeSource supplies the configured "HH:MM" start time at ingest time.
type StartTimeSource interface {
	StartTime() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSink sets the durable store that accepted events are written to.
func WithSink(s Sink) Option {
	return func(l *Ledger) { l.sink = s }
}

// WithLocation sets the timezone used to derive calendar dates and cutoffs.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = locationOrLocal(loc) }
}

// WithIDGenerator overrides the event identifier generator.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// Ledger is the append-only attendance log. At most one event exists per person and
// calendar date; Ingest is the only write path and holds the lock across the
// check-then-append sequence.
type Ledger struct {
	mu       sync.RWMutex
	registry Registry
	config   StartTimeSource
	loc      *time.Location
	sink     Sink
	newID    func() string

	events []Event
	byDay  map[dayKey]int
	byDate map[string][]int
}

// NewLedger builds an empty ledger over the given registry and configuration source.
func NewLedger(registry Registry, config StartTimeSource, opts ...Option) *Ledger {
	l := &Ledger{
		registry: registry,
		config:   config,
		loc:      time.Local,
		newID:    uuid.NewString,
		byDay:    make(map[dayKey]int),
		byDate:   make(map[string][]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the timezone the ledger derives calendar dates in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Ingest records a scan of identifier at nowMillis. Rejections are reported through the
// Outcome; the returned error is non-nil only when the sink failed, in which case nothing
// was appended. A sink reporting RecordedElsewhereError is not a failure: the stored event is
// adopted and the scan is rejected as already recorded.
func (l *Ledger) Ingest(ctx context.Context, identifier string, nowMillis int64) (Outcome, error) {
	today := CalendarDate(nowMillis, l.loc)

	person, ok := l.registry.Resolve(strings.TrimSpace(identifier))
	if !ok {
		return unknownIdentifier(), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, exists := l.byDay[dayKey{personID: person.ID, date: today}]; exists {
		return alreadyRecorded(person, l.events[idx]), nil
	}

	startTime := DefaultStartTime
	if l.config != nil {
		startTime = l.config.StartTime()
	}

	event := Event{
		ID:             l.newID(),
		PersonID:       person.ID,
		Classification: person.Classification,
		Status:         Classify(nowMillis, startTime, today, l.loc),
		OccurredAt:     nowMillis,
		CalendarDate:   today,
	}

	if l.sink != nil {
		if err := l.sink.Append(ctx, event); err != nil {
			var elsewhere *RecordedElsewhereError
			if errors.As(err, &elsewhere) && elsewhere.Existing.key() == event.key() {
				l.appendLocked(elsewhere.Existing)
				return alreadyRecorded(person, elsewhere.Existing), nil
			}
			return Outcome{}, fmt.Errorf("persist attendance event: %w", err)
		}
	}

	l.appendLocked(event)
	return accepted(person, event), nil
}

func (l *Ledger) appendLocked(e Event) {
	idx := len(l.events)
	l.events = append(l.events, e)
	l.byDay[e.key()] = idx
	l.byDate[e.CalendarDate] = append(l.byDate[e.CalendarDate], idx)
}

// Restore replaces the ledger contents with previously persisted events, keeping the first
// event seen for any person-day. It returns how many events were dropped as duplicates.
func (l *Ledger) Restore(events []Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = make([]Event, 0, len(events))
	l.byDay = make(map[dayKey]int, len(events))
	l.byDate = make(map[string][]int)

	dropped := 0
	for _, e := range events {
		if _, exists := l.byDay[e.key()]; exists {
			dropped++
			continue
		}
		l.appendLocked(e)
	}
	return dropped
}

// Merge appends events recorded elsewhere, skipping any person-day already on file. Merged
// events bypass the sink. It returns how many events were skipped.
func (l *Ledger) Merge(events []Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	skipped := 0
	for _, e := range events {
		if _, exists := l.byDay[e.key()]; exists {
			skipped++
			continue
		}
		l.appendLocked(e)
	}
	return skipped
}

// EventsOn returns the events for a calendar date in insertion order, optionally limited to
// one classification.
func (l *Ledger) EventsOn(date string, classification *Classification) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	indexes := l.byDate[date]
	out := make([]Event, 0, len(indexes))
	for _, idx := range indexes {
		e := l.events[idx]
		if classification != nil && e.Classification != *classification {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Lookup returns the event recorded for a person on a date, if any.
func (l *Ledger) Lookup(personID, date string) (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.byDay[dayKey{personID: personID, date: date}]
	if !ok {
		return Event{}, false
	}
	return l.events[idx], true
}

// Events returns a copy of the whole log.
func (l *Ledger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Event(nil), l.events...)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
