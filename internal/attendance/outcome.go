package attendance

// OutcomeKind enumerates the results of an ingest.
type OutcomeKind string

const (
	OutcomeAccepted          OutcomeKind = "accepted"
	OutcomeUnknownIdentifier OutcomeKind = "unknown_identifier"
	OutcomeAlreadyRecorded   OutcomeKind = "already_recorded"
)

// Outcome is returned by Ledger.Ingest. For OutcomeAccepted, Event is the new record;
// for OutcomeAlreadyRecorded it is the record that was already on file for the day.
// Person is zero for OutcomeUnknownIdentifier.
type Outcome struct {
	Kind   OutcomeKind
	Event  Event
	Person Person
}

// Accepted reports whether the ingest appended a new event.
func (o Outcome) Accepted() bool {
	return o.Kind == OutcomeAccepted
}

func accepted(p Person, e Event) Outcome {
	return Outcome{Kind: OutcomeAccepted, Event: e, Person: p}
}

func alreadyRecorded(p Person, existing Event) Outcome {
	return Outcome{Kind: OutcomeAlreadyRecorded, Event: existing, Person: p}
}

func unknownIdentifier() Outcome {
	return Outcome{Kind: OutcomeUnknownIdentifier}
}
