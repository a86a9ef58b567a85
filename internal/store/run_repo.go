package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// LogNormalizationIssue appends a diagnostic row. Append-only: never
// updated or consulted by scoring.
func LogNormalizationIssue(ctx context.Context, tx execer, addressRaw, addressNorm *string, source string, lat, lng *float64, nearestPropertyID *int64, distanceDegrees *float64) error {
	now := domain.Now().UTC().Format(timeFormat)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO normalization_issues
			(address_raw, address_norm, source, latitude, longitude, nearest_property_id, distance_degrees, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, addressRaw, addressNorm, source, lat, lng, nearestPropertyID, distanceDegrees, now)
	if err != nil {
		return fmt.Errorf("logging normalization issue: %w", err)
	}
	return nil
}

// CountNormalizationIssues returns the total rows ever logged, across all
// runs.
func CountNormalizationIssues(ctx context.Context, tx execer) (int, error) {
	row := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM normalization_issues`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting normalization issues: %w", err)
	}
	return n, nil
}

// StartRun opens a pipeline_runs row in "running" status and returns its id.
func StartRun(ctx context.Context, tx execer, sources []string) (int64, error) {
	now := domain.Now().UTC().Format(timeFormat)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO pipeline_runs (started_at, sources, status) VALUES (?, ?, 'running')
	`, now, strings.Join(sources, ","))
	if err != nil {
		return 0, fmt.Errorf("starting pipeline run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new run id: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run completed with final counts.
func CompleteRun(ctx context.Context, tx execer, runID int64, propertiesCount, signalsCount int) error {
	now := domain.Now().UTC().Format(timeFormat)
	_, err := tx.ExecContext(ctx, `
		UPDATE pipeline_runs SET completed_at = ?, properties_count = ?, signals_count = ?, status = 'completed'
		WHERE id = ?
	`, now, propertiesCount, signalsCount, runID)
	if err != nil {
		return fmt.Errorf("completing pipeline run %d: %w", runID, err)
	}
	return nil
}
