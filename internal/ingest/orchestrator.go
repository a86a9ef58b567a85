package ingest

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/westseattle/distressed-pipeline/internal/domain"
	"github.com/westseattle/distressed-pipeline/internal/fetch"
	"github.com/westseattle/distressed-pipeline/internal/observability"
	"github.com/westseattle/distressed-pipeline/internal/store"
)

// Scorer rescores every property in the store. internal/scoring.Scorer
// implements this; kept as an interface here so ingest never imports
// scoring directly.
type Scorer interface {
	ScoreAll(ctx context.Context) error
}

// SourceSummary totals one source's contribution to a run.
type SourceSummary struct {
	Source             string
	RecordsFetched     int
	SkippedNoAddress   int
	SkippedNormalize   int
	PropertiesTouched  int
	SignalsInserted    int
	Err                error // non-nil if the fetcher failed partway through
}

// RunSummary totals a whole pipeline run, returned to the run controller
// for the end-of-run report.
type RunSummary struct {
	RunID                int64
	Sources              []SourceSummary
	TotalProperties      int
	TotalSignals          int
	NormalizationIssues  int
}

// Orchestrator drives one run of the ingestion pipeline: per source, fetch,
// normalize, and load every page, then audit for likely-duplicate
// addresses before moving to the next source.
type Orchestrator struct {
	store            *store.Store
	metrics          *observability.Metrics
	logger           *slog.Logger
	proximityDegrees float64
	scorer           Scorer
}

// New builds an Orchestrator. scorer may be nil if the caller only wants
// the ingestion half (e.g. a future rescore-only invocation calls the
// scorer directly instead).
func New(st *store.Store, metrics *observability.Metrics, logger *slog.Logger, proximityDegrees float64, scorer Scorer) *Orchestrator {
	return &Orchestrator{
		store:            st,
		metrics:          metrics,
		logger:           logger,
		proximityDegrees: proximityDegrees,
		scorer:           scorer,
	}
}

// Run ingests every fetcher in order, rescores every property in the store
// afterward, and returns a summary for the run controller to report.
func (o *Orchestrator) Run(ctx context.Context, fetchers []fetch.Fetcher) (*RunSummary, error) {
	sourceNames := make([]string, len(fetchers))
	for i, f := range fetchers {
		sourceNames[i] = f.SourceName()
	}

	var runID int64
	err := o.store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := store.StartRun(ctx, tx, sourceNames)
		if err != nil {
			return err
		}
		runID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.metrics.RunsStarted.Inc()
	o.logger.Info("pipeline run started", "run_id", runID, "sources", sourceNames)

	summary := &RunSummary{RunID: runID}
	for _, f := range fetchers {
		src := o.runSource(ctx, f)
		summary.Sources = append(summary.Sources, src)
		summary.TotalProperties += src.PropertiesTouched
		summary.TotalSignals += src.SignalsInserted

		if src.Err != nil {
			o.logger.Error("source failed, continuing with next source",
				"source", src.Source, "error", src.Err)
			continue
		}

		issues, err := o.auditNormalization(ctx, src.Source)
		if err != nil {
			o.logger.Error("normalization audit failed", "source", src.Source, "error", err)
		}
		summary.NormalizationIssues += issues
	}

	if o.scorer != nil {
		if err := o.scorer.ScoreAll(ctx); err != nil {
			o.logger.Error("scoring failed", "error", err)
		}
	}

	if err := o.store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.CompleteRun(ctx, tx, runID, summary.TotalProperties, summary.TotalSignals)
	}); err != nil {
		return summary, err
	}
	o.metrics.RunsCompleted.Inc()
	o.logger.Info("pipeline run completed", "run_id", runID,
		"properties", summary.TotalProperties, "signals", summary.TotalSignals)

	return summary, nil
}

// runSource pages through a single fetcher and loads every record, one page
// per transaction. A fetcher error mid-stream is recorded on the summary
// and does not propagate: the caller logs it and moves to the next source.
func (o *Orchestrator) runSource(ctx context.Context, f fetch.Fetcher) SourceSummary {
	summary := SourceSummary{Source: f.SourceName()}
	pageStart := time.Now()

	for page, err := range f.Pages(ctx) {
		o.metrics.PageFetchDuration.WithLabelValues(summary.Source).Observe(time.Since(pageStart).Seconds())

		if err != nil {
			summary.Err = err
			return summary
		}

		o.metrics.RecordsFetched.WithLabelValues(summary.Source).Add(float64(len(page)))
		summary.RecordsFetched += len(page)

		if loadErr := o.loadPage(ctx, f, page, &summary); loadErr != nil {
			summary.Err = loadErr
			return summary
		}

		pageStart = time.Now()
	}

	return summary
}

// loadPage normalizes and upserts every record in a page inside a single
// transaction, bounding in-flight state to one page at a time.
func (o *Orchestrator) loadPage(ctx context.Context, f fetch.Fetcher, page []fetch.Record, summary *SourceSummary) error {
	return o.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range page {
			raw := f.ExtractAddress(rec)
			if raw == nil || *raw == "" {
				o.metrics.RecordsSkipped.WithLabelValues(summary.Source, "no_address").Inc()
				summary.SkippedNoAddress++
				continue
			}

			norm := domain.NormalizeAddress(raw)
			if norm == nil {
				o.metrics.RecordsSkipped.WithLabelValues(summary.Source, "normalize_failed").Inc()
				summary.SkippedNormalize++
				continue
			}

			zip := f.ExtractZip(rec)
			lat, lng := f.ExtractCoords(rec)

			propertyID, err := store.UpsertProperty(ctx, tx, *raw, *norm, zip, lat, lng, domain.PropertyTypeUnknown)
			if err != nil {
				return err
			}
			o.metrics.PropertiesTouched.WithLabelValues(summary.Source).Inc()
			summary.PropertiesTouched++

			for _, sig := range f.ExtractSignals(rec) {
				inserted, err := store.UpsertSignal(ctx, tx, propertyID, summary.Source, sig.SourceRecordID, sig.SignalType, 0, sig.Detail, sig.EventDate)
				if err != nil {
					return err
				}
				if inserted {
					o.metrics.SignalsInserted.WithLabelValues(summary.Source).Inc()
					summary.SignalsInserted++
				}
			}
		}
		return nil
	})
}

// auditNormalization checks every property that has a signal from source
// and has coordinates, looking up the nearest property within the
// proximity threshold. FindNearbyProperty does not exclude the property
// itself, which is its own nearest match at distance zero, so an issue is
// logged only when a different property sits at exactly the same
// coordinates and is returned ahead of it; distinct properties at a
// nonzero distance inside the threshold are not reported. Returns the
// count of issues logged.
func (o *Orchestrator) auditNormalization(ctx context.Context, source string) (int, error) {
	var ids []int64
	if err := o.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		ids, err = store.PropertyIDsWithSignalsFromSource(ctx, tx, source)
		return err
	}); err != nil {
		return 0, err
	}

	var issues int
	for _, id := range ids {
		var found bool
		err := o.store.WithTx(ctx, func(tx *sql.Tx) error {
			prop, err := store.GetPropertyByID(ctx, tx, id)
			if err != nil {
				return err
			}
			if prop.Latitude == nil || prop.Longitude == nil {
				return nil
			}

			nearby, err := store.FindNearbyProperty(ctx, tx, prop.Latitude, prop.Longitude, o.proximityDegrees)
			if err != nil {
				return err
			}
			if nearby == nil || nearby.ID == prop.ID {
				return nil
			}

			distance := manhattanDistance(*prop.Latitude, *prop.Longitude, *nearby.Latitude, *nearby.Longitude)
			nearestID := nearby.ID
			if err := store.LogNormalizationIssue(ctx, tx, &prop.AddressRaw, &prop.AddressNorm, source,
				prop.Latitude, prop.Longitude, &nearestID, &distance); err != nil {
				return err
			}
			found = true
			return nil
		})
		if err != nil {
			return issues, err
		}
		if found {
			o.metrics.NormalizationIssues.Inc()
			issues++
		}
	}

	return issues, nil
}

func manhattanDistance(lat1, lng1, lat2, lng2 float64) float64 {
	return abs(lat1-lat2) + abs(lng1-lng2)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
