package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/westseattle/distressed-pipeline/internal/domain"
	"github.com/westseattle/distressed-pipeline/internal/observability"
	"github.com/westseattle/distressed-pipeline/internal/store"
)

// eventDateLayouts are tried in order against a signal's event_date; the
// SODA fetchers emit either a bare date or a full timestamp depending on
// source. Dates in any other shape, such as the MM/DD/YYYY sale dates on
// parcel enrichment signals, do not parse and count at neutral decay.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Scorer computes total_score and tier for properties from their signals.
// It holds a clockwork.Clock rather than calling time.Now directly so
// tests can freeze "now" and assert exact decay/recency boundaries.
type Scorer struct {
	store   *store.Store
	config  *Config
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// New builds a Scorer against the given config and store.
func New(st *store.Store, cfg *Config, clock clockwork.Clock, metrics *observability.Metrics) *Scorer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scorer{store: st, config: cfg, clock: clock, metrics: metrics}
}

// ScoreAll recomputes total_score and tier for every property in the
// store. Used both after an ingestion run and for a standalone
// rescore-only invocation.
func (s *Scorer) ScoreAll(ctx context.Context) error {
	var properties []domain.Property
	if err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		properties, err = store.AllProperties(ctx, tx)
		return err
	}); err != nil {
		return fmt.Errorf("loading properties to score: %w", err)
	}

	for _, p := range properties {
		total, tier, err := s.ScoreProperty(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("scoring property %d: %w", p.ID, err)
		}
		if err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
			return store.UpdatePropertyScore(ctx, tx, p.ID, total, tier)
		}); err != nil {
			return fmt.Errorf("persisting score for property %d: %w", p.ID, err)
		}
		if s.metrics != nil {
			s.metrics.ScoredProperties.Inc()
		}
	}

	return nil
}

// ScoreProperty computes the total score and tier for one property from
// its current signals. It does not persist the result.
func (s *Scorer) ScoreProperty(ctx context.Context, propertyID int64) (total float64, tier string, err error) {
	var signals []domain.Signal
	if err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		signals, err = store.SignalsForProperty(ctx, tx, propertyID)
		return err
	}); err != nil {
		return 0, "", fmt.Errorf("loading signals for property %d: %w", propertyID, err)
	}

	now := s.clock.Now()
	maxAge := time.Duration(s.config.Recency.MaxAgeDays) * 24 * time.Hour
	cutoff := now.Add(-maxAge)

	sources := make(map[string]struct{})
	for _, sig := range signals {
		weight, ok := s.config.SignalWeights[sig.SignalType]
		if !ok {
			weight = 1
		}

		decayMult := 1.0
		if sig.EventDate != nil {
			eventTime, parsed := parseEventDate(*sig.EventDate)
			if parsed {
				if eventTime.Before(cutoff) {
					// Outside the recency window: the signal does not
					// contribute to the score at all.
					continue
				}
				ageDays := now.Sub(eventTime).Hours() / 24
				ramp := 1 - ageDays/float64(s.config.Recency.MaxAgeDays)
				if ramp < 0 {
					ramp = 0
				}
				decayMult = 1 + s.config.Recency.DecayBoost*ramp
			}
		}

		statusMult := s.statusMultiplier(sig.Source, sig.Detail)

		total += weight * decayMult * statusMult
		sources[sig.Source] = struct{}{}
	}

	if len(sources) >= s.config.Bonuses.MultiSourceThreshold {
		total += s.config.Bonuses.MultiSourcePoints
	}

	tier = domain.TierC
	if total >= s.config.Tiers.A {
		tier = domain.TierA
	} else if total >= s.config.Tiers.B {
		tier = domain.TierB
	}

	return total, tier, nil
}

// statusMultiplier looks up detail.status (lowercased, trimmed) under this
// signal's source in the configured status_multipliers table. Returns 1.0
// if the source, status, or detail itself is absent.
func (s *Scorer) statusMultiplier(source string, detail map[string]any) float64 {
	byStatus, ok := s.config.StatusMultipliers[source]
	if !ok {
		return 1.0
	}
	raw, ok := detail["status"].(string)
	if !ok {
		return 1.0
	}
	status := strings.ToLower(strings.TrimSpace(raw))
	mult, ok := byStatus[status]
	if !ok {
		return 1.0
	}
	return mult
}

func parseEventDate(s string) (time.Time, bool) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
