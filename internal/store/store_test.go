package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strp(s string) *string    { return &s }
func f64p(f float64) *float64  { return &f }

func TestUpsertProperty_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id1, err := UpsertProperty(ctx, s.DB(), "5812 SW Spokane St", "5812 SW SPOKANE ST", strp("98106"), f64p(47.56), f64p(-122.38), "")
	require.NoError(t, err)
	assert.NotZero(t, id1)

	// Second upsert on the same address_norm should return the same id and
	// only overwrite non-null fields; property_type should stay sticky.
	id2, err := UpsertProperty(ctx, s.DB(), "5812 SW Spokane Street", "5812 SW SPOKANE ST", nil, nil, nil, "single_family")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	p, err := GetPropertyByID(ctx, s.DB(), id1)
	require.NoError(t, err)
	assert.Equal(t, "single_family", p.PropertyType)
	require.NotNil(t, p.ZipCode)
	assert.Equal(t, "98106", *p.ZipCode)
}

func TestUpsertProperty_PropertyTypeDoesNotRevertToUnknown(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := UpsertProperty(ctx, s.DB(), "100 1ST AVE", "100 1ST AVE", nil, nil, nil, "single_family")
	require.NoError(t, err)

	_, err = UpsertProperty(ctx, s.DB(), "100 1ST AVE", "100 1ST AVE", nil, nil, nil, "")
	require.NoError(t, err)

	p, err := GetPropertyByID(ctx, s.DB(), id)
	require.NoError(t, err)
	assert.Equal(t, "single_family", p.PropertyType)
}

func TestUpsertSignal_DuplicateIsSoftRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	propID, err := UpsertProperty(ctx, s.DB(), "1 MAIN ST", "1 MAIN ST", nil, nil, nil, "")
	require.NoError(t, err)

	inserted, err := UpsertSignal(ctx, s.DB(), propID, "permits", "rec-1", domain.SignalDemolished, 0, nil, nil)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = UpsertSignal(ctx, s.DB(), propID, "permits", "rec-1", domain.SignalDemolished, 0, nil, nil)
	require.NoError(t, err)
	assert.False(t, inserted, "re-ingesting the same source record must be a no-op, not an error")
}

func TestFindNearbyProperty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := UpsertProperty(ctx, s.DB(), "A", "A", nil, f64p(47.5000), f64p(-122.3000), "")
	require.NoError(t, err)

	found, err := FindNearbyProperty(ctx, s.DB(), f64p(47.50005), f64p(-122.30005), 0.0001)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "A", found.AddressNorm)

	notFound, err := FindNearbyProperty(ctx, s.DB(), f64p(47.6), f64p(-122.5), 0.0001)
	require.NoError(t, err)
	assert.Nil(t, notFound)

	nilCoord, err := FindNearbyProperty(ctx, s.DB(), nil, f64p(-122.3), 0.0001)
	require.NoError(t, err)
	assert.Nil(t, nilCoord)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	runID, err := StartRun(ctx, s.DB(), []string{"permits", "fire_calls"})
	require.NoError(t, err)
	assert.NotZero(t, runID)

	err = CompleteRun(ctx, s.DB(), runID, 10, 25)
	require.NoError(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	wantErr := assert.AnError
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
