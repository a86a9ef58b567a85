package domain

import "time"

// Signal is one immutable distress observation tied to exactly one
// Property. (source, source_record_id) is globally unique; re-ingesting
// the same source record is a no-op.
type Signal struct {
	ID             int64
	PropertyID     int64
	Source         string
	SourceRecordID string
	SignalType     string
	SignalWeight   float64
	Detail         map[string]any
	EventDate      *string // ISO-8601, nullable
	FetchedAt      time.Time
}

// ExtractedSignal is what a fetcher's ExtractSignals produces per record,
// before it has a Property to attach to.
type ExtractedSignal struct {
	SourceRecordID string
	SignalType     string
	Detail         map[string]any
	EventDate      *string
}
