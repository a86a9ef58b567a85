package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/domain"
)

const redfinCSVURL = "https://www.redfin.com/stingray/api/gis-csv"

// RecentSalesFetcher pulls recent sales per zip code from Redfin's CSV
// export endpoint. Best-effort: Redfin can block or reshape this endpoint
// at any time, so every failure mode here degrades to "zero records for
// this zip" rather than failing the whole source.
type RecentSalesFetcher struct {
	httpClient *http.Client
	zips       []string
	delay      time.Duration
	logger     *slog.Logger
}

func NewRecentSalesFetcher(cfg *config.Config, logger *slog.Logger) *RecentSalesFetcher {
	return &RecentSalesFetcher{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeoutSmall},
		zips:       config.WestSeattleZips,
		delay:      cfg.CSVExportRequestDelay,
		logger:     logger,
	}
}

func (f *RecentSalesFetcher) SourceName() string { return "king_county_sales" }

func (f *RecentSalesFetcher) Pages(ctx context.Context) iter.Seq2[[]Record, error] {
	return func(yield func([]Record, error) bool) {
		for i, zip := range f.zips {
			records, err := f.fetchZip(ctx, zip)
			if err != nil {
				f.logger.Warn("redfin fetch failed", "zip", zip, "error", err)
			} else if len(records) > 0 {
				if !yield(records, nil) {
					return
				}
			}

			if i < len(f.zips)-1 {
				select {
				case <-ctx.Done():
					yield(nil, ctx.Err())
					return
				case <-time.After(f.delay):
				}
			}
		}
	}
}

func (f *RecentSalesFetcher) fetchZip(ctx context.Context, zip string) ([]Record, error) {
	params := url.Values{
		"al":               {"1"},
		"market":           {"seattle"},
		"region_type":      {"2"},
		"sold_within_days": {"365"},
		"status":           {"9"},
		"uipt":             {"1,2,3"},
		"v":                {"8"},
		"region_id":        {zip},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, redfinCSVURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building redfin request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("redfin request for zip %s: %w", zip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("redfin returned non-200", "zip", zip, "status", resp.StatusCode)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading redfin response for zip %s: %w", zip, err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<!") || strings.HasPrefix(text, "{") {
		f.logger.Warn("redfin returned a non-CSV response", "zip", zip)
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	var records []Record
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		rowZip, _ := rec["ZIP OR POSTAL CODE"].(string)
		if strings.TrimSpace(rowZip) != zip {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (f *RecentSalesFetcher) ExtractAddress(r Record) *string {
	return recordString(r, "ADDRESS")
}

func (f *RecentSalesFetcher) ExtractCoords(r Record) (lat, lng *float64) {
	return recordFloat(r, "LATITUDE"), recordFloat(r, "LONGITUDE")
}

func (f *RecentSalesFetcher) ExtractZip(r Record) *string {
	return recordString(r, "ZIP OR POSTAL CODE")
}

func (f *RecentSalesFetcher) ExtractSignals(r Record) []domain.ExtractedSignal {
	address := derefOrEmpty(recordString(r, "ADDRESS"))
	mls := recordString(r, "MLS#")

	recordID := "redfin-" + address
	if mls != nil && *mls != "" {
		recordID = "redfin-" + *mls
	}

	return []domain.ExtractedSignal{{
		SourceRecordID: recordID,
		SignalType:     domain.SignalRecentlySold,
		Detail: map[string]any{
			"price":         derefOrEmpty(recordString(r, "PRICE")),
			"sale_type":     derefOrEmpty(recordString(r, "SALE TYPE")),
			"property_type": derefOrEmpty(recordString(r, "PROPERTY TYPE")),
			"status":        "sold",
		},
		EventDate: recordString(r, "SOLD DATE"),
	}}
}
