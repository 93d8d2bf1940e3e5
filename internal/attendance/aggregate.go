package attendance

import (
	"sort"
	"time"
)

// Partition groups one classification's population for a single day.
//
// Present and Late come from recorded events and keep people who have since left the
// registry. Absent is computed against the current registry only. After roster deletions
// the three sets can therefore cover more people than Known; this is a known approximation.
type Partition struct {
	Date    string
	Present []string
	Late    []string
	Absent  []string
	Known   int
}

// DayCount is one point of a historical series.
type DayCount struct {
	Date    string
	Present int
	Late    int
	Absent  int
}

// PopulationCounter is implemented by registries that can count without listing.
type PopulationCounter interface {
	Count(c Classification) int
}

// Aggregator derives read-only reports from a registry and a ledger.
type Aggregator struct {
	registry Registry
	ledger   *Ledger
}

// NewAggregator wires an aggregator over the given registry and ledger.
func NewAggregator(registry Registry, ledger *Ledger) *Aggregator {
	return &Aggregator{registry: registry, ledger: ledger}
}

// Location returns the timezone reports are computed in.
func (a *Aggregator) Location() *time.Location {
	return a.ledger.Location()
}

// PartitionForDay splits the population of classification into present, late and absent
// for date. All three slices are sorted.
func (a *Aggregator) PartitionForDay(date string, classification Classification) Partition {
	events := a.ledger.EventsOn(date, &classification)

	attended := make(map[string]struct{}, len(events))
	present := make([]string, 0, len(events))
	late := make([]string, 0)
	for _, e := range events {
		attended[e.PersonID] = struct{}{}
		switch e.Status {
		case StatusLate:
			late = append(late, e.PersonID)
		default:
			present = append(present, e.PersonID)
		}
	}

	known := a.registry.Known(classification)
	absent := make([]string, 0, len(known))
	for _, id := range known {
		if _, ok := attended[id]; !ok {
			absent = append(absent, id)
		}
	}

	sort.Strings(present)
	sort.Strings(late)
	sort.Strings(absent)

	return Partition{
		Date:    date,
		Present: present,
		Late:    late,
		Absent:  absent,
		Known:   len(known),
	}
}

// HistoricalSeries returns per-day counts for numDays dates ending at endDate, oldest first.
// Absence for every day, past ones included, is measured against today's population and
// clamped at zero, since the registry keeps no historical snapshots.
func (a *Aggregator) HistoricalSeries(endDate string, numDays int, classification Classification) ([]DayCount, error) {
	dates, err := DateRange(endDate, numDays, a.ledger.Location())
	if err != nil {
		return nil, err
	}

	population := a.population(classification)
	series := make([]DayCount, 0, len(dates))
	for _, date := range dates {
		point := DayCount{Date: date}
		for _, e := range a.ledger.EventsOn(date, &classification) {
			if e.Status == StatusLate {
				point.Late++
			} else {
				point.Present++
			}
		}
		point.Absent = max(0, population-(point.Present+point.Late))
		series = append(series, point)
	}
	return series, nil
}

func (a *Aggregator) population(c Classification) int {
	if counter, ok := a.registry.(PopulationCounter); ok {
		return counter.Count(c)
	}
	return len(a.registry.Known(c))
}
