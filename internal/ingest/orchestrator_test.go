package ingest

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westseattle/distressed-pipeline/internal/domain"
	"github.com/westseattle/distressed-pipeline/internal/fetch"
	"github.com/westseattle/distressed-pipeline/internal/observability"
	"github.com/westseattle/distressed-pipeline/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f64p(f float64) *float64 { return &f }
func strp(s string) *string   { return &s }

// stubFetcher is a hand-rolled fetch.Fetcher for orchestrator tests: pages
// is a fixed sequence of record batches, optionally terminated by an error.
type stubFetcher struct {
	source string
	pages  [][]fetch.Record
	failAt int // page index after which to yield an error, -1 to never fail
}

func (f *stubFetcher) SourceName() string { return f.source }

func (f *stubFetcher) Pages(ctx context.Context) iter.Seq2[[]fetch.Record, error] {
	return func(yield func([]fetch.Record, error) bool) {
		for i, page := range f.pages {
			if !yield(page, nil) {
				return
			}
			if f.failAt == i {
				yield(nil, assert.AnError)
				return
			}
		}
	}
}

func (f *stubFetcher) ExtractAddress(r fetch.Record) *string {
	v, _ := r["address"].(string)
	if v == "" {
		return nil
	}
	return &v
}

func (f *stubFetcher) ExtractCoords(r fetch.Record) (lat, lng *float64) {
	la, ok1 := r["lat"].(float64)
	ln, ok2 := r["lng"].(float64)
	if !ok1 || !ok2 {
		return nil, nil
	}
	return &la, &ln
}

func (f *stubFetcher) ExtractZip(r fetch.Record) *string {
	v, _ := r["zip"].(string)
	if v == "" {
		return nil
	}
	return &v
}

func (f *stubFetcher) ExtractSignals(r fetch.Record) []domain.ExtractedSignal {
	sig, ok := r["signal"].(string)
	if !ok {
		return nil
	}
	return []domain.ExtractedSignal{{SourceRecordID: r["id"].(string), SignalType: sig}}
}

type stubScorer struct {
	called bool
	err    error
}

func (s *stubScorer) ScoreAll(ctx context.Context) error {
	s.called = true
	return s.err
}

func TestOrchestrator_Run_IngestsRecordsAndSkipsBad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	metrics := observability.NewMetricsForTesting()
	scorer := &stubScorer{}

	f := &stubFetcher{
		source: "permits",
		failAt: -1,
		pages: [][]fetch.Record{
			{
				{"id": "1", "address": "123 Main St", "zip": "98106", "lat": 47.5, "lng": -122.3, "signal": domain.SignalDemolished},
				{"id": "2", "address": ""}, // no address, should be skipped
				{"id": "3", "address": "Apt 3B"}, // normalizes to nothing, should be skipped
			},
		},
	}

	o := New(s, metrics, discardLogger(), 0.0001, scorer)
	summary, err := o.Run(ctx, []fetch.Fetcher{f})
	require.NoError(t, err)

	require.Len(t, summary.Sources, 1)
	src := summary.Sources[0]
	assert.Equal(t, "permits", src.Source)
	assert.Equal(t, 3, src.RecordsFetched)
	assert.Equal(t, 1, src.SkippedNoAddress)
	assert.Equal(t, 1, src.SkippedNormalize)
	assert.Equal(t, 1, src.PropertiesTouched)
	assert.Equal(t, 1, src.SignalsInserted)
	assert.True(t, scorer.called, "scorer must run after ingestion finishes")

	props, err := store.AllProperties(ctx, s.DB())
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "123 MAIN ST", props[0].AddressNorm)
}

func TestOrchestrator_Run_ContinuesPastSourceFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	metrics := observability.NewMetricsForTesting()

	failing := &stubFetcher{
		source: "urm",
		failAt: 0,
		pages: [][]fetch.Record{
			{{"id": "1", "address": "1 FIRST AVE"}},
		},
	}
	healthy := &stubFetcher{
		source: "permits",
		failAt: -1,
		pages: [][]fetch.Record{
			{{"id": "2", "address": "2 SECOND AVE"}},
		},
	}

	o := New(s, metrics, discardLogger(), 0.0001, &stubScorer{})
	summary, err := o.Run(ctx, []fetch.Fetcher{failing, healthy})
	require.NoError(t, err)

	require.Len(t, summary.Sources, 2)
	assert.Error(t, summary.Sources[0].Err)
	assert.NoError(t, summary.Sources[1].Err)
	assert.Equal(t, 1, summary.Sources[1].PropertiesTouched)
}

func TestOrchestrator_Run_AuditDoesNotFlagPropertyAgainstItself(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	metrics := observability.NewMetricsForTesting()

	// A single property is always its own nearest match (distance zero);
	// the audit pass must recognize that and log nothing.
	f := &stubFetcher{
		source: "fire_calls",
		failAt: -1,
		pages: [][]fetch.Record{
			{{"id": "1", "address": "1 FIRST AVE", "lat": 47.5000, "lng": -122.3000, "signal": domain.SignalBuildingFire}},
		},
	}

	o := New(s, metrics, discardLogger(), 0.0005, &stubScorer{})
	summary, err := o.Run(ctx, []fetch.Fetcher{f})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.NormalizationIssues)

	count, err := store.CountNormalizationIssues(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
