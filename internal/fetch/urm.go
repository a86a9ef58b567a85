package fetch

import (
	"context"
	"iter"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// URMFetcher reads the Unreinforced Masonry Buildings SODA dataset,
// filtered to the zip whitelist.
type URMFetcher struct {
	soda sodaPaginator
	zips []string
}

func NewURMFetcher(cfg *config.Config) *URMFetcher {
	return &URMFetcher{soda: newSodaPaginator(cfg), zips: config.WestSeattleZips}
}

func (f *URMFetcher) SourceName() string { return "urm" }

func (f *URMFetcher) Pages(ctx context.Context) iter.Seq2[[]Record, error] {
	where := "zip_code in(" + quotedZipList(f.zips) + ")"
	return f.soda.paginate(ctx, config.DatasetURM, where)
}

func (f *URMFetcher) ExtractAddress(r Record) *string {
	return orString(recordString(r, "address"), recordString(r, "street_address"))
}

// ExtractCoords handles both a GeoJSON [lng, lat] pair under
// geocoded_column and a flat latitude/longitude pair.
func (f *URMFetcher) ExtractCoords(r Record) (lat, lng *float64) {
	if geo, ok := r["geocoded_column"].(map[string]any); ok {
		if coords, ok := geo["coordinates"].([]any); ok && len(coords) >= 2 {
			lngVal, lngOK := toFloat(coords[0])
			latVal, latOK := toFloat(coords[1])
			if lngOK && latOK {
				return &latVal, &lngVal
			}
		}
	}
	return recordFloat(r, "latitude"), recordFloat(r, "longitude")
}

func (f *URMFetcher) ExtractZip(r Record) *string {
	return recordString(r, "zip_code")
}

func (f *URMFetcher) ExtractSignals(r Record) []domain.ExtractedSignal {
	recordID := orString(recordString(r, "address"), recordString(r, ":id"))
	id := "urm_" + derefOrEmpty(recordID)

	retrofitStatus := upperTrim(orString(recordString(r, "retrofit_level"), recordString(r, "retrofit")))
	riskCategory := upperTrim(orString(recordString(r, "preliminary_risk_category"), recordString(r, "risk_category")))

	hasRetrofit := strings.Contains(retrofitStatus, "RETROFIT") &&
		!strings.Contains(retrofitStatus, "NO") &&
		!strings.Contains(retrofitStatus, "NOT") &&
		!strings.Contains(retrofitStatus, "NONE")

	var signalType string
	switch {
	case hasRetrofit:
		signalType = domain.SignalURMRetrofitted
	case strings.Contains(riskCategory, "HIGH"):
		signalType = domain.SignalURMHighRiskNoRetrofit
	default:
		signalType = domain.SignalURMNoRetrofit
	}

	return []domain.ExtractedSignal{{
		SourceRecordID: id,
		SignalType:     signalType,
		Detail: map[string]any{
			"retrofit_status": retrofitStatus,
			"risk_category":   riskCategory,
			"building_use":    derefOrEmpty(recordString(r, "building_use")),
			"year_built":      derefOrEmpty(recordString(r, "year_built")),
			"neighborhood":    derefOrEmpty(recordString(r, "neighborhood")),
		},
		EventDate: nil,
	}}
}

func toFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
