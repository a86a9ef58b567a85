package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/fetch"
	"github.com/westseattle/distressed-pipeline/internal/ingest"
	"github.com/westseattle/distressed-pipeline/internal/observability"
	"github.com/westseattle/distressed-pipeline/internal/scoring"
	"github.com/westseattle/distressed-pipeline/internal/store"
)

// sourceOrder lists every known source name. Order here is the order a full
// run ingests sources in.
var sourceOrder = []string{
	"code_violations",
	"permits",
	"urm",
	"fire_911",
	"kc_enrichment",
	"king_county_sales",
}

// Controller wires config, the store, fetchers, the orchestrator, and the
// scorer together and drives one invocation of cmd/pipeline.
type Controller struct {
	cfg     *config.Config
	store   *store.Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New builds a Controller against an already-open store.
func New(cfg *config.Config, st *store.Store, metrics *observability.Metrics, logger *slog.Logger) *Controller {
	return &Controller{cfg: cfg, store: st, metrics: metrics, logger: logger}
}

// RunIngest ingests the given source, or every known source if source is
// empty, then rescores every property in the store and prints the
// end-of-run summary.
func (c *Controller) RunIngest(ctx context.Context, source string) error {
	fetchers, err := c.buildFetchers(source)
	if err != nil {
		return err
	}

	scoringCfg, err := scoring.LoadConfig(c.cfg.ScoringConfig)
	if err != nil {
		return err
	}
	scorer := scoring.New(c.store, scoringCfg, clockwork.NewRealClock(), c.metrics)

	orch := ingest.New(c.store, c.metrics, c.logger, c.cfg.ProximityDegrees, scorer)
	summary, err := orch.Run(ctx, fetchers)
	if summary != nil {
		c.printSummary(summary)
	}
	return err
}

// RunRescoreOnly re-runs the scorer over every property without invoking
// any fetcher.
func (c *Controller) RunRescoreOnly(ctx context.Context) error {
	scoringCfg, err := scoring.LoadConfig(c.cfg.ScoringConfig)
	if err != nil {
		return err
	}
	scorer := scoring.New(c.store, scoringCfg, clockwork.NewRealClock(), c.metrics)

	if err := scorer.ScoreAll(ctx); err != nil {
		return fmt.Errorf("rescoring properties: %w", err)
	}
	c.printTierBreakdown(ctx)
	return nil
}

// buildFetchers instantiates the fetcher for source, or every fetcher in
// sourceOrder if source is empty.
func (c *Controller) buildFetchers(source string) ([]fetch.Fetcher, error) {
	all := map[string]fetch.Fetcher{
		"code_violations":    fetch.NewCodeViolationsFetcher(c.cfg),
		"permits":            fetch.NewPermitsFetcher(c.cfg),
		"urm":                fetch.NewURMFetcher(c.cfg),
		"fire_911":           fetch.NewFireCallsFetcher(c.cfg),
		"kc_enrichment":      fetch.NewParcelEnrichmentFetcher(c.cfg, c.logger),
		"king_county_sales":  fetch.NewRecentSalesFetcher(c.cfg, c.logger),
	}

	if source == "" {
		fetchers := make([]fetch.Fetcher, 0, len(sourceOrder))
		for _, name := range sourceOrder {
			fetchers = append(fetchers, all[name])
		}
		return fetchers, nil
	}

	f, ok := all[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	return []fetch.Fetcher{f}, nil
}

// printSummary renders the per-run report: totals, per-source counts,
// normalization issues, and the top 10 properties by score.
func (c *Controller) printSummary(summary *ingest.RunSummary) {
	fmt.Printf("\nRun %d complete\n", summary.RunID)
	fmt.Printf("  Properties touched: %d\n", summary.TotalProperties)
	fmt.Printf("  Signals inserted:   %d\n", summary.TotalSignals)
	fmt.Printf("  Normalization issues logged: %d\n", summary.NormalizationIssues)

	for _, src := range summary.Sources {
		status := "ok"
		if src.Err != nil {
			status = "FAILED: " + src.Err.Error()
		}
		fmt.Printf("  [%s] fetched=%d skipped(no_address)=%d skipped(normalize)=%d properties=%d signals=%d (%s)\n",
			src.Source, src.RecordsFetched, src.SkippedNoAddress, src.SkippedNormalize,
			src.PropertiesTouched, src.SignalsInserted, status)
	}

	c.printTierBreakdown(context.Background())
}

// printTierBreakdown prints per-tier counts and the top 10 properties by
// total_score, read directly off the store (the one read-side query that
// doesn't belong in a repo file per entity).
func (c *Controller) printTierBreakdown(ctx context.Context) {
	rows, err := c.store.DB().QueryContext(ctx, `SELECT tier, COUNT(*) FROM properties GROUP BY tier`)
	if err != nil {
		c.logger.Error("tier breakdown query failed", "error", err)
		return
	}
	defer rows.Close()

	fmt.Println("  Tiers:")
	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			c.logger.Error("scanning tier row", "error", err)
			return
		}
		fmt.Printf("    %s: %d\n", tier, count)
	}

	top, err := c.store.DB().QueryContext(ctx, `
		SELECT address_norm, total_score, tier FROM properties
		ORDER BY total_score DESC LIMIT 10
	`)
	if err != nil {
		c.logger.Error("top-10 query failed", "error", err)
		return
	}
	defer top.Close()

	fmt.Println("  Top 10 by score:")
	for top.Next() {
		var addr, tier string
		var score float64
		if err := top.Scan(&addr, &score, &tier); err != nil {
			c.logger.Error("scanning top-10 row", "error", err)
			return
		}
		fmt.Printf("    %-40s %6.1f  (%s)\n", addr, score, tier)
	}
}
