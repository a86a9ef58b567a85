package fetch

import (
	"context"
	"iter"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// PermitsFetcher reads Seattle's Building Permits SODA dataset, filtered
// to expired/canceled permits and demolition work in the zip whitelist.
type PermitsFetcher struct {
	soda sodaPaginator
	zips []string
}

func NewPermitsFetcher(cfg *config.Config) *PermitsFetcher {
	return &PermitsFetcher{soda: newSodaPaginator(cfg), zips: config.WestSeattleZips}
}

func (f *PermitsFetcher) SourceName() string { return "permits" }

func (f *PermitsFetcher) Pages(ctx context.Context) iter.Seq2[[]Record, error] {
	where := "originalzip in(" + quotedZipList(f.zips) + ") AND " +
		"(statuscurrent = 'Expired' OR statuscurrent = 'Canceled' OR " +
		"upper(description) like '%DEMOLISH%' OR upper(description) like '%DEMOLITION%')"
	return f.soda.paginate(ctx, config.DatasetPermits, where)
}

func (f *PermitsFetcher) ExtractAddress(r Record) *string {
	return recordString(r, "originaladdress1")
}

func (f *PermitsFetcher) ExtractCoords(r Record) (lat, lng *float64) {
	return recordFloat(r, "latitude"), recordFloat(r, "longitude")
}

func (f *PermitsFetcher) ExtractZip(r Record) *string {
	return recordString(r, "originalzip")
}

func (f *PermitsFetcher) ExtractSignals(r Record) []domain.ExtractedSignal {
	recordID := orString(recordString(r, "permitnum"), recordString(r, ":id"))
	id := derefOrEmpty(recordID)

	status := upperTrim(recordString(r, "statuscurrent"))
	description := upperTrim(recordString(r, "description"))

	var signalType string
	switch {
	case strings.Contains(description, "DEMOLISH") || strings.Contains(description, "DEMOLITION"):
		signalType = domain.SignalDemolished
	case status == "EXPIRED":
		cost := float64(0)
		if c := recordFloat(r, "estprojectcost"); c != nil {
			cost = *c
		}
		if cost > 50000 {
			signalType = domain.SignalExpiredPermitMajor
		} else {
			signalType = domain.SignalExpiredPermitMinor
		}
	case status == "CANCELED":
		signalType = domain.SignalPermitCancelled
	default:
		signalType = domain.SignalExpiredPermitMinor
	}

	eventDate := orString(recordString(r, "applieddate"), recordString(r, "issueddate"))

	return []domain.ExtractedSignal{{
		SourceRecordID: id,
		SignalType:     signalType,
		Detail: map[string]any{
			"status":       status,
			"description":  derefOrEmpty(recordString(r, "description")),
			"est_cost":     recordFloat(r, "estprojectcost"),
			"permit_type":  derefOrEmpty(orString(recordString(r, "permittypedesc"), recordString(r, "permittypemapped"))),
		},
		EventDate: eventDate,
	}}
}
