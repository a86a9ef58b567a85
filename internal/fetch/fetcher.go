package fetch

import (
	"context"
	"iter"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// Record is one heterogeneous row from a source, kept as a weakly-typed
// map rather than a source-specific struct: every source names its fields
// differently (originaladdress1, ADDRESS, address_raw...) and the
// orchestrator never needs more than the handful of values each Extract*
// method pulls out.
type Record map[string]any

// Fetcher is the contract every source-specific fetcher implements.
type Fetcher interface {
	// SourceName identifies this fetcher on every signal it emits.
	SourceName() string

	// Pages yields finite batches of records, terminating with a non-nil
	// error if retrieval failed partway through. Implementations fetch
	// pages lazily and respect ctx cancellation between pages.
	Pages(ctx context.Context) iter.Seq2[[]Record, error]

	// ExtractAddress returns the raw address a record names, or nil.
	ExtractAddress(r Record) *string

	// ExtractCoords returns latitude/longitude if the record carries them.
	ExtractCoords(r Record) (lat, lng *float64)

	// ExtractZip returns the zip code a record names, or nil.
	ExtractZip(r Record) *string

	// ExtractSignals returns zero or more signals a record implies.
	ExtractSignals(r Record) []domain.ExtractedSignal
}
