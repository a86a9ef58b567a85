package domain

import "time"

// PipelineRun status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
)

// PipelineRun tracks bookkeeping for one invocation of the orchestrator:
// which sources were selected, when it started/finished, and how many
// properties/signals it touched.
type PipelineRun struct {
	ID               int64
	StartedAt        time.Time
	CompletedAt      *time.Time
	Sources          []string
	PropertiesCount  int
	SignalsCount     int
	Status           string
}

// NormalizationIssue is an append-only diagnostic: two distinct properties
// were found within the proximity threshold of each other, suggesting the
// normalizer produced two different address_norm values for what may be
// the same parcel.
type NormalizationIssue struct {
	ID                 int64
	AddressRaw         *string
	AddressNorm        *string
	Source             string
	Latitude           *float64
	Longitude          *float64
	NearestPropertyID  *int64
	DistanceDegrees    *float64
	CreatedAt          time.Time
}
