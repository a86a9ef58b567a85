package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westseattle/distressed-pipeline/internal/domain"
)

func TestCodeViolationsFetcher_ExtractSignals_PrimaryType(t *testing.T) {
	f := &CodeViolationsFetcher{}
	rec := Record{
		"recordnum":      "REC-1",
		"recordtypedesc": "Vacant Building",
		"statuscurrent":  "Open",
		"opendate":       "2024-01-01T00:00:00.000",
	}

	signals := f.ExtractSignals(rec)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.SignalVacantBuilding, signals[0].SignalType)
	assert.Equal(t, "REC-1", signals[0].SourceRecordID)
}

func TestCodeViolationsFetcher_ExtractSignals_StatusBoost(t *testing.T) {
	f := &CodeViolationsFetcher{}
	rec := Record{
		"recordnum":      "REC-2",
		"recordtypedesc": "Vacant Building",
		"statuscurrent":  "Notice of Violation Issued",
	}

	signals := f.ExtractSignals(rec)
	require.Len(t, signals, 2)
	assert.Equal(t, domain.SignalNoticeOfViolation, signals[0].SignalType)
	assert.Equal(t, "REC-2_nov", signals[0].SourceRecordID)
	assert.Equal(t, domain.SignalVacantBuilding, signals[1].SignalType)
}

func TestCodeViolationsFetcher_ExtractSignals_FallbackOther(t *testing.T) {
	f := &CodeViolationsFetcher{}
	rec := Record{"recordnum": "REC-3", "recordtypedesc": "Some Other Thing"}

	signals := f.ExtractSignals(rec)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.SignalComplaintOther, signals[0].SignalType)
}

func TestCodeViolationsFetcher_ExtractCoords(t *testing.T) {
	f := &CodeViolationsFetcher{}
	lat, lng := f.ExtractCoords(Record{"latitude": 47.5, "longitude": -122.3})
	require.NotNil(t, lat)
	require.NotNil(t, lng)
	assert.Equal(t, 47.5, *lat)
	assert.Equal(t, -122.3, *lng)
}
