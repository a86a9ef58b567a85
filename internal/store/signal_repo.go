package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// UpsertSignal inserts a signal if (source, source_record_id) doesn't
// already exist. Returns inserted=false without error when the unique
// constraint rejects it — that collision is the only soft-handled failure
// mode in the store; everything else propagates.
func UpsertSignal(ctx context.Context, tx execer, propertyID int64, source, sourceRecordID, signalType string, weight float64, detail map[string]any, eventDate *string) (bool, error) {
	var detailJSON any
	if len(detail) > 0 {
		b, err := json.Marshal(detail)
		if err != nil {
			return false, fmt.Errorf("marshaling signal detail: %w", err)
		}
		detailJSON = string(b)
	}

	now := domain.Now().UTC().Format(timeFormat)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO signals (property_id, source, source_record_id, signal_type, signal_weight, detail, event_date, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, propertyID, source, sourceRecordID, signalType, weight, detailJSON, eventDate, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return false, nil
		}
		return false, fmt.Errorf("inserting signal %s/%s: %w", source, sourceRecordID, err)
	}
	return true, nil
}

// isUniqueConstraintErr reports whether err came from the
// (source, source_record_id) unique index. modernc.org/sqlite surfaces
// constraint violations as plain errors whose text names the constraint,
// so we match on that rather than a typed sentinel.
func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT")
}

// SignalsForProperty loads every signal attached to a property, used by the
// scorer.
func SignalsForProperty(ctx context.Context, tx execer, propertyID int64) ([]domain.Signal, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, property_id, source, source_record_id, signal_type, signal_weight, detail, event_date, fetched_at
		FROM signals WHERE property_id = ?
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("loading signals for property %d: %w", propertyID, err)
	}
	defer rows.Close()

	var out []domain.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning signal row: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// PropertyIDsWithSignalsFromSource lists distinct properties that received
// at least one signal from source, for the orchestrator's post-source
// normalization-audit pass.
func PropertyIDsWithSignalsFromSource(ctx context.Context, tx execer, source string) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT property_id FROM signals WHERE source = ?`, source)
	if err != nil {
		return nil, fmt.Errorf("listing properties for source %q: %w", source, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning property id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSignal(rows *sql.Rows) (*domain.Signal, error) {
	var s domain.Signal
	var detailJSON sql.NullString
	var fetchedAt string
	if err := rows.Scan(&s.ID, &s.PropertyID, &s.Source, &s.SourceRecordID, &s.SignalType,
		&s.SignalWeight, &detailJSON, &s.EventDate, &fetchedAt); err != nil {
		return nil, err
	}
	s.FetchedAt = parseTimeOrZero(fetchedAt)
	if detailJSON.Valid && detailJSON.String != "" {
		if err := json.Unmarshal([]byte(detailJSON.String), &s.Detail); err != nil {
			return nil, fmt.Errorf("unmarshaling signal detail: %w", err)
		}
	}
	return &s, nil
}
