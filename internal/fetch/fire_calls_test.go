package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

func TestFireCallsFetcher_ExtractSignals_Residential(t *testing.T) {
	f := &FireCallsFetcher{}
	rec := Record{
		"incident_number": "F100",
		"type":            "Residential Single Family",
		"datetime":        "2024-02-01T00:00:00.000",
	}

	signals := f.ExtractSignals(rec)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.SignalResidentialFire, signals[0].SignalType)
}

func TestFireCallsFetcher_ExtractSignals_BuildingFallback(t *testing.T) {
	f := &FireCallsFetcher{}
	rec := Record{"incident_number": "F101", "type": "Commercial Structure Fire"}

	signals := f.ExtractSignals(rec)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.SignalBuildingFire, signals[0].SignalType)
}

func TestFireCallsFetcher_ExtractCoords_FlatFields(t *testing.T) {
	f := &FireCallsFetcher{}
	lat, lng := f.ExtractCoords(Record{"latitude": 47.55, "longitude": -122.38})
	require.NotNil(t, lat)
	require.NotNil(t, lng)
	assert.Equal(t, 47.55, *lat)
	assert.Equal(t, -122.38, *lng)
}

func TestFireCallsFetcher_ExtractCoords_NestedLocation(t *testing.T) {
	f := &FireCallsFetcher{}
	rec := Record{"report_location": map[string]any{"latitude": 47.56, "longitude": -122.39}}
	lat, lng := f.ExtractCoords(rec)
	require.NotNil(t, lat)
	require.NotNil(t, lng)
	assert.Equal(t, 47.56, *lat)
	assert.Equal(t, -122.39, *lng)
}

func TestFireCallsFetcher_ExtractCoords_Missing(t *testing.T) {
	f := &FireCallsFetcher{}
	lat, lng := f.ExtractCoords(Record{})
	assert.Nil(t, lat)
	assert.Nil(t, lng)
}
