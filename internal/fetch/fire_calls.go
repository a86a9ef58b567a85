package fetch

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/domain"
)

var fireWhereTypes = []string{
	"RESIDENTIAL FIRE", "BUILDING FIRE", "STRUCTURE FIRE",
	"FIRE IN BUILDING", "FIRE IN SINGLE", "FIRE IN MULTI",
}

// FireCallsFetcher reads Seattle Fire 911 Calls within a 5km circle around
// the coverage area, filtered to fire-type incidents.
type FireCallsFetcher struct {
	soda sodaPaginator
}

func NewFireCallsFetcher(cfg *config.Config) *FireCallsFetcher {
	return &FireCallsFetcher{soda: newSodaPaginator(cfg)}
}

func (f *FireCallsFetcher) SourceName() string { return "fire_911" }

func (f *FireCallsFetcher) Pages(ctx context.Context) iter.Seq2[[]Record, error] {
	clauses := make([]string, len(fireWhereTypes))
	for i, t := range fireWhereTypes {
		clauses[i] = fmt.Sprintf("upper(type) like '%%%s%%'", t)
	}
	where := fmt.Sprintf(
		"within_circle(report_location, %v, %v, %v) AND (%s)",
		config.FireCenterLat, config.FireCenterLng, config.FireRadiusMeters,
		strings.Join(clauses, " OR "),
	)
	return f.soda.paginate(ctx, config.DatasetFire911, where)
}

func (f *FireCallsFetcher) ExtractAddress(r Record) *string {
	return recordString(r, "address")
}

func (f *FireCallsFetcher) ExtractCoords(r Record) (lat, lng *float64) {
	if lat, lng := recordFloat(r, "latitude"), recordFloat(r, "longitude"); lat != nil && lng != nil {
		return lat, lng
	}
	if loc, ok := r["report_location"].(map[string]any); ok {
		latV, latOK := toFloat(loc["latitude"])
		lngV, lngOK := toFloat(loc["longitude"])
		if latOK && lngOK {
			return &latV, &lngV
		}
	}
	return nil, nil
}

func (f *FireCallsFetcher) ExtractZip(r Record) *string {
	return recordString(r, "zipcode")
}

func (f *FireCallsFetcher) ExtractSignals(r Record) []domain.ExtractedSignal {
	recordID := orString(recordString(r, "incident_number"), recordString(r, ":id"))
	id := derefOrEmpty(recordID)

	incidentType := upperTrim(recordString(r, "type"))

	signalType := domain.SignalBuildingFire
	for _, t := range []string{"RESIDENTIAL", "SINGLE FAMILY", "MULTI FAMILY"} {
		if strings.Contains(incidentType, t) {
			signalType = domain.SignalResidentialFire
			break
		}
	}

	datetime := recordString(r, "datetime")

	return []domain.ExtractedSignal{{
		SourceRecordID: id,
		SignalType:     signalType,
		Detail: map[string]any{
			"type":     incidentType,
			"datetime": derefOrEmpty(datetime),
		},
		EventDate: datetime,
	}}
}
