package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// UpsertProperty inserts or updates a property keyed on address_norm. On
// conflict, each nullable column is overwritten only if the new value is
// non-null; property_type is overwritten only when the incoming value is
// not the default "unknown"; last_updated always advances. Returns the
// stable property id.
func UpsertProperty(ctx context.Context, tx execer, addressRaw, addressNorm string, zip *string, lat, lng *float64, propertyType string) (int64, error) {
	if propertyType == "" {
		propertyType = domain.PropertyTypeUnknown
	}
	now := domain.Now().UTC().Format(timeFormat)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO properties (address_raw, address_norm, zip_code, latitude, longitude, property_type, first_seen, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address_norm) DO UPDATE SET
			address_raw = COALESCE(excluded.address_raw, properties.address_raw),
			zip_code = COALESCE(excluded.zip_code, properties.zip_code),
			latitude = COALESCE(excluded.latitude, properties.latitude),
			longitude = COALESCE(excluded.longitude, properties.longitude),
			property_type = CASE WHEN excluded.property_type != 'unknown'
			                     THEN excluded.property_type
			                     ELSE properties.property_type END,
			last_updated = excluded.last_updated
	`, addressRaw, addressNorm, zip, lat, lng, propertyType, now, now)
	if err != nil {
		return 0, fmt.Errorf("upserting property %q: %w", addressNorm, err)
	}

	// LastInsertId is not used: when the upsert takes the DO UPDATE path,
	// SQLite leaves it at the connection's previous insert, which may be a
	// different property or a signal row.
	row := tx.QueryRowContext(ctx, `SELECT id FROM properties WHERE address_norm = ?`, addressNorm)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up property %q after upsert: %w", addressNorm, err)
	}
	return id, nil
}

// FindNearbyProperty runs an axis-aligned box prefilter followed by a sort
// on Manhattan distance in degrees, returning the closest match or
// sql.ErrNoRows wrapped as a nil result. Returns nil, nil if either
// coordinate is nil.
func FindNearbyProperty(ctx context.Context, tx execer, lat, lng *float64, thresholdDegrees float64) (*domain.Property, error) {
	if lat == nil || lng == nil {
		return nil, nil
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, address_raw, address_norm, zip_code, latitude, longitude,
		       property_type, total_score, tier, first_seen, last_updated
		FROM properties
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND ABS(latitude - ?) < ? AND ABS(longitude - ?) < ?
		ORDER BY ABS(latitude - ?) + ABS(longitude - ?)
		LIMIT 1
	`, *lat, thresholdDegrees, *lng, thresholdDegrees, *lat, *lng)

	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding nearby property: %w", err)
	}
	return p, nil
}

// GetPropertyByID loads a single property by id.
func GetPropertyByID(ctx context.Context, tx execer, id int64) (*domain.Property, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, address_raw, address_norm, zip_code, latitude, longitude,
		       property_type, total_score, tier, first_seen, last_updated
		FROM properties WHERE id = ?
	`, id)
	p, err := scanProperty(row)
	if err != nil {
		return nil, fmt.Errorf("loading property %d: %w", id, err)
	}
	return p, nil
}

// UpdatePropertyScore persists the scorer's output for one property.
func UpdatePropertyScore(ctx context.Context, tx execer, propertyID int64, totalScore float64, tier string) error {
	_, err := tx.ExecContext(ctx, `UPDATE properties SET total_score = ?, tier = ? WHERE id = ?`, totalScore, tier, propertyID)
	if err != nil {
		return fmt.Errorf("updating score for property %d: %w", propertyID, err)
	}
	return nil
}

// AllProperties loads every property in the store in id order, for the
// scorer's full pass.
func AllProperties(ctx context.Context, tx execer) ([]domain.Property, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, address_raw, address_norm, zip_code, latitude, longitude,
		       property_type, total_score, tier, first_seen, last_updated
		FROM properties ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanPropertyRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property row: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*domain.Property, error) {
	var p domain.Property
	var firstSeen, lastUpdated string
	if err := row.Scan(&p.ID, &p.AddressRaw, &p.AddressNorm, &p.ZipCode, &p.Latitude, &p.Longitude,
		&p.PropertyType, &p.TotalScore, &p.Tier, &firstSeen, &lastUpdated); err != nil {
		return nil, err
	}
	p.FirstSeen = parseTimeOrZero(firstSeen)
	p.LastUpdated = parseTimeOrZero(lastUpdated)
	return &p, nil
}

func scanPropertyRows(rows *sql.Rows) (*domain.Property, error) {
	return scanProperty(rows)
}
