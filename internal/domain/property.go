package domain

import "time"

// PropertyTypeUnknown is the default property_type assigned until a fetcher
// observes something more specific. Upserts never downgrade a specific
// type back to unknown.
const PropertyTypeUnknown = "unknown"

// Tier values a property's total score sorts into. Every property starts
// at TierC; the scorer promotes it as its signals accumulate.
const (
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// Property is one real-world parcel, identified by its canonical address.
type Property struct {
	ID           int64
	AddressRaw   string
	AddressNorm  string
	ZipCode      *string
	Latitude     *float64
	Longitude    *float64
	PropertyType string
	TotalScore   float64
	Tier         string
	FirstSeen    time.Time
	LastUpdated  time.Time
}
