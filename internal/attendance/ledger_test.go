package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func newTestLedger(startTime string, people ...Person) (*Ledger, *MemoryRegistry, *ConfigHolder) {
	registry := NewMemoryRegistry(people...)
	holder := NewConfigHolder()
	holder.Replace(SchoolConfig{StartTime: startTime})

	seq := 0
	ledger := NewLedger(registry, holder,
		WithLocation(testLoc),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("evt-%d", seq)
		}),
	)
	return ledger, registry, holder
}

func student(id string) Person {
	return Person{ID: id, Classification: ClassificationStudent, DisplayName: "Student " + id}
}

func TestIngestBasicFlow(t *testing.T) {
	ledger, _, _ := newTestLedger("08:00", student("s1"))
	ctx := context.Background()
	date := "2024-03-11"

	first, err := ledger.Ingest(ctx, "s1", millisAt(date, 8, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, first.Kind)
	require.True(t, first.Accepted())
	require.Equal(t, StatusPresent, first.Event.Status)
	require.Equal(t, date, first.Event.CalendarDate)
	require.Equal(t, ClassificationStudent, first.Event.Classification)
	require.Equal(t, "evt-1", first.Event.ID)

	second, err := ledger.Ingest(ctx, "s1", millisAt(date, 9, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyRecorded, second.Kind)
	require.Equal(t, first.Event, second.Event)

	unknown, err := ledger.Ingest(ctx, "unknown-id", millisAt(date, 9, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeUnknownIdentifier, unknown.Kind)
	require.Equal(t, 1, ledger.Len())
}

func TestIngestLateMarking(t *testing.T) {
	ledger, _, _ := newTestLedger("08:30", student("s1"))

	outcome, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 8, 31, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, outcome.Kind)
	require.Equal(t, StatusLate, outcome.Event.Status)
}

func TestIngestNextDayIsAccepted(t *testing.T) {
	ledger, _, _ := newTestLedger("08:00", student("s1"))
	ctx := context.Background()

	_, err := ledger.Ingest(ctx, "s1", millisAt("2024-03-11", 7, 0, 0, 0))
	require.NoError(t, err)

	next, err := ledger.Ingest(ctx, "s1", millisAt("2024-03-12", 7, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, next.Kind)
	require.Equal(t, 2, ledger.Len())
}

func TestIngestUnknownNeverMutates(t *testing.T) {
	sink := &recordingSink{}
	registry := NewMemoryRegistry()
	ledger := NewLedger(registry, NewConfigHolder(), WithLocation(testLoc), WithSink(sink))

	for i := 0; i < 5; i++ {
		outcome, err := ledger.Ingest(context.Background(), "ghost", millisAt("2024-03-11", 8, i, 0, 0))
		require.NoError(t, err)
		require.Equal(t, OutcomeUnknownIdentifier, outcome.Kind)
	}
	require.Zero(t, ledger.Len())
	require.Empty(t, sink.events)
}

func TestIngestSinkFailureAppendsNothing(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	registry := NewMemoryRegistry(student("s1"))
	ledger := NewLedger(registry, NewConfigHolder(), WithLocation(testLoc), WithSink(sink))

	_, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 8, 0, 0, 0))
	require.Error(t, err)
	require.Zero(t, ledger.Len())

	sink.err = nil
	outcome, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 8, 5, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAccepted, outcome.Kind)
	require.Len(t, sink.events, 1)
}

func TestIngestAdoptsEventRecordedElsewhere(t *testing.T) {
	stored := Event{
		ID:             "remote-1",
		PersonID:       "s1",
		Classification: ClassificationStudent,
		Status:         StatusPresent,
		OccurredAt:     millisAt("2024-03-11", 7, 55, 0, 0),
		CalendarDate:   "2024-03-11",
	}
	sink := &recordingSink{err: &RecordedElsewhereError{Existing: stored}}
	registry := NewMemoryRegistry(student("s1"))
	ledger := NewLedger(registry, NewConfigHolder(), WithLocation(testLoc), WithSink(sink))

	outcome, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 8, 30, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyRecorded, outcome.Kind)
	require.Equal(t, stored, outcome.Event)

	recorded, ok := ledger.Lookup("s1", "2024-03-11")
	require.True(t, ok)
	require.Equal(t, stored, recorded)

	sink.err = nil
	outcome, err = ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 9, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyRecorded, outcome.Kind)
	require.Equal(t, "remote-1", outcome.Event.ID)
	require.Empty(t, sink.events)
}

func TestIngestRejectsConflictForAnotherDay(t *testing.T) {
	sink := &recordingSink{err: &RecordedElsewhereError{Existing: Event{PersonID: "s1", CalendarDate: "2024-03-10"}}}
	registry := NewMemoryRegistry(student("s1"))
	ledger := NewLedger(registry, NewConfigHolder(), WithLocation(testLoc), WithSink(sink))

	_, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 8, 0, 0, 0))
	var elsewhere *RecordedElsewhereError
	require.ErrorAs(t, err, &elsewhere)
	require.Zero(t, ledger.Len())
}

func TestIngestKeepsClassificationAfterRegistryChange(t *testing.T) {
	ledger, registry, _ := newTestLedger("08:00", student("p1"))
	date := "2024-03-11"

	outcome, err := ledger.Ingest(context.Background(), "p1", millisAt(date, 7, 0, 0, 0))
	require.NoError(t, err)

	registry.Put(Person{ID: "p1", Classification: ClassificationTeacher, DisplayName: "Now a teacher"})

	teachers := ClassificationTeacher
	students := ClassificationStudent
	require.Empty(t, ledger.EventsOn(date, &teachers))
	require.Equal(t, []Event{outcome.Event}, ledger.EventsOn(date, &students))
}

func TestIngestUsesCurrentConfig(t *testing.T) {
	ledger, _, holder := newTestLedger("08:00", student("s1"), student("s2"))
	ctx := context.Background()
	date := "2024-03-11"

	first, err := ledger.Ingest(ctx, "s1", millisAt(date, 8, 15, 0, 0))
	require.NoError(t, err)
	require.Equal(t, StatusLate, first.Event.Status)

	holder.Replace(SchoolConfig{StartTime: "08:30"})
	second, err := ledger.Ingest(ctx, "s2", millisAt(date, 8, 15, 0, 0))
	require.NoError(t, err)
	require.Equal(t, StatusPresent, second.Event.Status)
}

func TestIngestConcurrentScansRecordOnce(t *testing.T) {
	sink := &recordingSink{}
	registry := NewMemoryRegistry(student("s1"))
	ledger := NewLedger(registry, NewConfigHolder(), WithLocation(testLoc), WithSink(sink))
	now := millisAt("2024-03-11", 7, 45, 0, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := ledger.Ingest(context.Background(), "s1", now)
			if err != nil {
				t.Error(err)
				return
			}
			if outcome.Accepted() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, accepted)
	require.Equal(t, 1, ledger.Len())
	require.Len(t, sink.events, 1)
}

func TestRestoreDropsDuplicatePersonDays(t *testing.T) {
	ledger, _, _ := newTestLedger("08:00", student("s1"))
	first := Event{ID: "a", PersonID: "s1", Classification: ClassificationStudent, Status: StatusPresent, CalendarDate: "2024-03-11"}
	dup := Event{ID: "b", PersonID: "s1", Classification: ClassificationStudent, Status: StatusLate, CalendarDate: "2024-03-11"}
	other := Event{ID: "c", PersonID: "s1", Classification: ClassificationStudent, Status: StatusLate, CalendarDate: "2024-03-12"}

	dropped := ledger.Restore([]Event{first, dup, other})
	require.Equal(t, 1, dropped)
	require.Equal(t, 2, ledger.Len())

	existing, ok := ledger.Lookup("s1", "2024-03-11")
	require.True(t, ok)
	require.Equal(t, "a", existing.ID)

	outcome, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-12", 7, 0, 0, 0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyRecorded, outcome.Kind)
	require.Equal(t, "c", outcome.Event.ID)
}

func TestMergeKeepsExistingEvents(t *testing.T) {
	ledger, _, _ := newTestLedger("08:00", student("s1"), student("s2"))
	local, err := ledger.Ingest(context.Background(), "s1", millisAt("2024-03-11", 7, 0, 0, 0))
	require.NoError(t, err)
	require.True(t, local.Accepted())

	remote := Event{ID: "r1", PersonID: "s2", Classification: ClassificationStudent, Status: StatusLate, CalendarDate: "2024-03-11"}
	clash := Event{ID: "r2", PersonID: "s1", Classification: ClassificationStudent, Status: StatusLate, CalendarDate: "2024-03-11"}

	require.Equal(t, 1, ledger.Merge([]Event{remote, clash}))
	require.Equal(t, 2, ledger.Len())

	kept, ok := ledger.Lookup("s1", "2024-03-11")
	require.True(t, ok)
	require.Equal(t, local.Event.ID, kept.ID)

	merged, ok := ledger.Lookup("s2", "2024-03-11")
	require.True(t, ok)
	require.Equal(t, "r1", merged.ID)
}
