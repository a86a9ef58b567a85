package fetch

import (
	"context"
	"iter"
	"strings"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/domain"
)

// codeViolationSignalMap maps a record-type description's substring to a
// signal type, checked in order so the most specific match wins.
var codeViolationSignalMap = []struct {
	substr string
	signal string
}{
	{"UNFIT FOR HABITATION", domain.SignalUnfitBuilding},
	{"VACANT BUILDING", domain.SignalVacantBuilding},
	{"NOTICE OF VIOLATION", domain.SignalNoticeOfViolation},
	{"CITATION", domain.SignalCitation},
}

// CodeViolationsFetcher reads Seattle's Code Complaints & Violations SODA
// dataset, filtered to the zip whitelist.
type CodeViolationsFetcher struct {
	soda sodaPaginator
	zips []string
}

// NewCodeViolationsFetcher builds the fetcher from pipeline config.
func NewCodeViolationsFetcher(cfg *config.Config) *CodeViolationsFetcher {
	return &CodeViolationsFetcher{soda: newSodaPaginator(cfg), zips: config.WestSeattleZips}
}

func (f *CodeViolationsFetcher) SourceName() string { return "code_violations" }

func (f *CodeViolationsFetcher) Pages(ctx context.Context) iter.Seq2[[]Record, error] {
	where := "originalzip in(" + quotedZipList(f.zips) + ")"
	return f.soda.paginate(ctx, config.DatasetCodeViolations, where)
}

func (f *CodeViolationsFetcher) ExtractAddress(r Record) *string {
	return recordString(r, "originaladdress1")
}

func (f *CodeViolationsFetcher) ExtractCoords(r Record) (lat, lng *float64) {
	return recordFloat(r, "latitude"), recordFloat(r, "longitude")
}

func (f *CodeViolationsFetcher) ExtractZip(r Record) *string {
	return recordString(r, "originalzip")
}

func (f *CodeViolationsFetcher) ExtractSignals(r Record) []domain.ExtractedSignal {
	recordID := orString(recordString(r, "recordnum"), recordString(r, ":id"))
	id := ""
	if recordID != nil {
		id = *recordID
	}

	recordType := upperTrim(orString(recordString(r, "recordtypedesc"), recordString(r, "recordtypemapped")))
	status := upperTrim(recordString(r, "statuscurrent"))
	openDate := recordString(r, "opendate")

	signalType := ""
	for _, m := range codeViolationSignalMap {
		if strings.Contains(recordType, m.substr) {
			signalType = m.signal
			break
		}
	}
	switch {
	case signalType != "":
	case strings.Contains(recordType, "CONSTRUCTION"):
		signalType = domain.SignalComplaintConstruction
	case strings.Contains(recordType, "LANDLORD"):
		signalType = domain.SignalComplaintLandlordTenant
	default:
		signalType = domain.SignalComplaintOther
	}

	var signals []domain.ExtractedSignal

	// Orthogonal boost: current status names NOV/citation even if that
	// isn't the record's primary type.
	if strings.Contains(status, "NOTICE OF VIOLATION") && signalType != domain.SignalNoticeOfViolation {
		signals = append(signals, domain.ExtractedSignal{
			SourceRecordID: id + "_nov",
			SignalType:     domain.SignalNoticeOfViolation,
			Detail:         map[string]any{"record_type": recordType, "status": status},
			EventDate:      openDate,
		})
	}
	if strings.Contains(status, "CITATION") && signalType != domain.SignalCitation {
		signals = append(signals, domain.ExtractedSignal{
			SourceRecordID: id + "_citation",
			SignalType:     domain.SignalCitation,
			Detail:         map[string]any{"record_type": recordType, "status": status},
			EventDate:      openDate,
		})
	}

	signals = append(signals, domain.ExtractedSignal{
		SourceRecordID: id,
		SignalType:     signalType,
		Detail: map[string]any{
			"record_type":           recordType,
			"status":                status,
			"description":           derefOrEmpty(recordString(r, "description")),
			"last_inspection_result": derefOrEmpty(recordString(r, "lastinspresult")),
		},
		EventDate: openDate,
	})

	return signals
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
