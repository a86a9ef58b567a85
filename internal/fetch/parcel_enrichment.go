package fetch

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/domain"
)

const batchSize = 500

type mailingRecord struct {
	addr, city, state, zip string
}

type saleRecord struct {
	lastDate, lastPrice, buyer string
}

type parcelRecord struct {
	address          string
	zip              string
	landVal, imprVal float64
}

// ParcelEnrichmentFetcher is the four-way join fetcher: an ArcGIS parcel
// spine joined in memory to a mailing-address bulk CSV, a sales-history
// bulk CSV, and a foreclosure SODA list, all keyed on a 10-digit parcel
// PIN (6-digit Major + 4-digit Minor, zero-padded).
type ParcelEnrichmentFetcher struct {
	httpClient *http.Client
	cache      *downloadCache
	cfg        *config.Config
	logger     *slog.Logger

	parcels      map[string]parcelRecord
	mailing      map[string]mailingRecord
	sales        map[string]saleRecord
	foreclosures map[string]bool
}

func NewParcelEnrichmentFetcher(cfg *config.Config, logger *slog.Logger) *ParcelEnrichmentFetcher {
	return &ParcelEnrichmentFetcher{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeoutGIS},
		cache:      newDownloadCache(cfg.DownloadsDir, cfg.KCDownloadCacheAge, cfg.HTTPTimeoutBulk, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

func (f *ParcelEnrichmentFetcher) SourceName() string { return "kc_enrichment" }

func (f *ParcelEnrichmentFetcher) Pages(ctx context.Context) iter.Seq2[[]Record, error] {
	return func(yield func([]Record, error) bool) {
		if err := f.loadAll(ctx); err != nil {
			yield(nil, err)
			return
		}

		batch := make([]Record, 0, batchSize)
		for pin, parcel := range f.parcels {
			rec := f.enrich(pin, parcel)
			if !f.hasSignals(rec) {
				continue
			}
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				if !yield(batch, nil) {
					return
				}
				batch = make([]Record, 0, batchSize)
			}
		}
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}

func (f *ParcelEnrichmentFetcher) loadAll(ctx context.Context) error {
	if f.parcels != nil {
		return nil
	}
	if err := f.loadParcels(ctx); err != nil {
		return fmt.Errorf("loading KC parcels: %w", err)
	}
	if err := f.loadMailing(ctx); err != nil {
		return fmt.Errorf("loading KC mailing records: %w", err)
	}
	if err := f.loadSales(ctx); err != nil {
		return fmt.Errorf("loading KC sales: %w", err)
	}
	if err := f.loadForeclosures(ctx); err != nil {
		return fmt.Errorf("loading KC foreclosure list: %w", err)
	}
	f.logger.Info("KC enrichment data loaded",
		"parcels", len(f.parcels), "mailing", len(f.mailing),
		"sales", len(f.sales), "foreclosures", len(f.foreclosures))
	return nil
}

func (f *ParcelEnrichmentFetcher) loadParcels(ctx context.Context) error {
	f.parcels = make(map[string]parcelRecord)
	where := "ZIP5 IN (" + quotedZipList(config.WestSeattleZips) + ") AND PROPTYPE='R'"
	offset := 0

	for {
		params := url.Values{
			"where":            {where},
			"outFields":        {"PIN,ADDR_FULL,ZIP5,APPRLNDVAL,APPR_IMPR"},
			"returnGeometry":   {"false"},
			"f":                {"json"},
			"resultRecordCount": {fmt.Sprintf("%d", f.cfg.KCGISPageSize)},
			"resultOffset":     {fmt.Sprintf("%d", offset)},
			"orderByFields":    {"OBJECTID"},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.KCGISParcelsURL+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("building GIS request: %w", err)
		}
		resp, err := f.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("requesting GIS parcels at offset %d: %w", offset, err)
		}

		var page arcgisResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if decodeErr != nil {
			return fmt.Errorf("decoding GIS response at offset %d: %w", offset, decodeErr)
		}

		if len(page.Features) == 0 {
			break
		}

		for _, feat := range page.Features {
			pin := strings.TrimSpace(feat.Attributes.PIN)
			if pin == "" {
				continue
			}
			f.parcels[pin] = parcelRecord{
				address: feat.Attributes.AddrFull,
				zip:     feat.Attributes.Zip5,
				landVal: feat.Attributes.ApprLndVal,
				imprVal: feat.Attributes.ApprImpr,
			}
		}

		offset += len(page.Features)
		if !page.ExceededTransferLimit {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.cfg.KCGISRequestDelay):
		}
	}
	return nil
}

type arcgisResponse struct {
	ExceededTransferLimit bool `json:"exceededTransferLimit"`
	Features              []struct {
		Attributes struct {
			PIN        string  `json:"PIN"`
			AddrFull   string  `json:"ADDR_FULL"`
			Zip5       string  `json:"ZIP5"`
			ApprLndVal float64 `json:"APPRLNDVAL"`
			ApprImpr   float64 `json:"APPR_IMPR"`
		} `json:"attributes"`
	} `json:"features"`
}

func makePIN(major, minor string) string {
	return zeroPad(major, 6) + zeroPad(minor, 4)
}

func zeroPad(s string, width int) string {
	s = strings.TrimSpace(s)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

var cityStateRe = regexp.MustCompile(`(?i)^(.+?)[,\s]+([A-Za-z]{2})$`)

func parseCityState(raw string) (city, state string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ""
	}
	if m := cityStateRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.ToUpper(m[2])
	}
	return text, ""
}

func (f *ParcelEnrichmentFetcher) loadMailing(ctx context.Context) error {
	f.mailing = make(map[string]mailingRecord)
	path, err := f.cache.ensure(ctx, config.KCRPAcctURL, "rpacct.zip")
	if err != nil {
		return err
	}
	return f.scanZipCSV(path, "RPAcct", func(row map[string]string) {
		pin := makePIN(row["Major"], row["Minor"])
		if _, ok := f.parcels[pin]; !ok {
			return
		}
		city, state := parseCityState(row["CityState"])
		zip := row["ZipCode"]
		if len(zip) > 5 {
			zip = zip[:5]
		}
		f.mailing[pin] = mailingRecord{
			addr:  strings.TrimSpace(row["AddrLine"]),
			city:  city,
			state: state,
			zip:   zip,
		}
	})
}

func (f *ParcelEnrichmentFetcher) loadSales(ctx context.Context) error {
	f.sales = make(map[string]saleRecord)
	path, err := f.cache.ensure(ctx, config.KCRPSaleURL, "rpsale.zip")
	if err != nil {
		return err
	}
	return f.scanZipCSV(path, "RPSale", func(row map[string]string) {
		pin := makePIN(row["Major"], row["Minor"])
		if _, ok := f.parcels[pin]; !ok {
			return
		}
		docDate := strings.TrimSpace(row["DocumentDate"])
		if docDate == "" {
			return
		}
		if existing, ok := f.sales[pin]; ok && existing.lastDate >= docDate {
			return
		}
		f.sales[pin] = saleRecord{
			lastDate:  docDate,
			lastPrice: row["SalePrice"],
			buyer:     strings.TrimSpace(row["BuyerName"]),
		}
	})
}

// scanZipCSV finds the first CSV in the zip whose name contains prefix
// (case-insensitive) and streams it through fn row by row.
func (f *ParcelEnrichmentFetcher) scanZipCSV(zipPath, prefix string, fn func(row map[string]string)) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", zipPath, err)
	}
	defer zr.Close()

	var target *zip.File
	for _, zf := range zr.File {
		if strings.Contains(strings.ToLower(zf.Name), strings.ToLower(prefix)) && strings.HasSuffix(strings.ToLower(zf.Name), ".csv") {
			target = zf
			break
		}
	}
	if target == nil {
		f.logger.Warn("no CSV found in zip", "zip", zipPath, "prefix", prefix)
		return nil
	}

	rc, err := target.Open()
	if err != nil {
		return fmt.Errorf("opening %s inside %s: %w", target.Name, zipPath, err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("reading header of %s: %w", target.Name, err)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading row of %s: %w", target.Name, err)
		}
		m := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		fn(m)
	}
	return nil
}

func (f *ParcelEnrichmentFetcher) loadForeclosures(ctx context.Context) error {
	f.foreclosures = make(map[string]bool)
	endpoint := fmt.Sprintf("%s/%s.json", config.KCSodaBase, config.KCForeclosureDataset)
	params := url.Values{"$limit": {fmt.Sprintf("%d", f.cfg.ForeclosureListLimit)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building foreclosure request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting foreclosure list: %w", err)
	}
	defer resp.Body.Close()

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return fmt.Errorf("decoding foreclosure list: %w", err)
	}
	for _, rec := range records {
		if pin, ok := rec["parcels"].(string); ok && strings.TrimSpace(pin) != "" {
			f.foreclosures[strings.TrimSpace(pin)] = true
		}
	}
	return nil
}

func (f *ParcelEnrichmentFetcher) enrich(pin string, parcel parcelRecord) Record {
	rec := Record{
		"pin":            pin,
		"address":        parcel.address,
		"zip":            parcel.zip,
		"land_val":       parcel.landVal,
		"impr_val":       parcel.imprVal,
		"in_foreclosure": f.foreclosures[pin],
	}
	if m, ok := f.mailing[pin]; ok {
		rec["mailing_city"] = m.city
		rec["mailing_state"] = m.state
	}
	if s, ok := f.sales[pin]; ok {
		rec["sale_last_date"] = s.lastDate
		rec["sale_last_price"] = s.lastPrice
		rec["sale_buyer"] = s.buyer
	}
	return rec
}

func (f *ParcelEnrichmentFetcher) ExtractAddress(r Record) *string {
	if addr, ok := r["address"].(string); ok && addr != "" {
		return &addr
	}
	return nil
}

func (f *ParcelEnrichmentFetcher) ExtractCoords(r Record) (lat, lng *float64) {
	return nil, nil
}

func (f *ParcelEnrichmentFetcher) ExtractZip(r Record) *string {
	if zip, ok := r["zip"].(string); ok && zip != "" {
		return &zip
	}
	return nil
}

func (f *ParcelEnrichmentFetcher) hasSignals(r Record) bool {
	return len(f.extractSignals(r, false)) > 0
}

func (f *ParcelEnrichmentFetcher) ExtractSignals(r Record) []domain.ExtractedSignal {
	return f.extractSignals(r, true)
}

// extractSignals computes the signal set for a joined parcel record.
// withDetail controls whether the detail maps are attached to the returned
// signals; hasSignals passes false because it only needs the count.
func (f *ParcelEnrichmentFetcher) extractSignals(r Record, withDetail bool) []domain.ExtractedSignal {
	pin, _ := r["pin"].(string)
	var signals []domain.ExtractedSignal

	mailingState, hasMailing := r["mailing_state"].(string)
	mailingCity, _ := r["mailing_city"].(string)
	if hasMailing {
		switch {
		case mailingState != "" && mailingState != "WA":
			signals = append(signals, domain.ExtractedSignal{
				SourceRecordID: "kc-absentee-" + pin,
				SignalType:     domain.SignalAbsenteeOwnerOutOfState,
				Detail:         detailOrNil(withDetail, map[string]any{"mailing_city": mailingCity, "mailing_state": mailingState}),
			})
		case mailingState == "WA" && mailingCity != "" && strings.ToUpper(mailingCity) != "SEATTLE":
			signals = append(signals, domain.ExtractedSignal{
				SourceRecordID: "kc-absentee-" + pin,
				SignalType:     domain.SignalAbsenteeOwnerInState,
				Detail:         detailOrNil(withDetail, map[string]any{"mailing_city": mailingCity, "mailing_state": mailingState}),
			})
		}
	}

	lastDate, hasSale := r["sale_last_date"].(string)
	if hasSale {
		if saleDate, ok := parseKCDate(lastDate); ok {
			ageYears := domain.Now().Sub(saleDate).Hours() / 24 / 365.25
			switch {
			case ageYears >= 20:
				signals = append(signals, domain.ExtractedSignal{
					SourceRecordID: "kc-longterm-" + pin,
					SignalType:     domain.SignalLongTermOwner20yr,
					Detail:         detailOrNil(withDetail, map[string]any{"last_sale_date": lastDate, "years": ageYears}),
					EventDate:      strPtr(lastDate),
				})
			case ageYears >= 10:
				signals = append(signals, domain.ExtractedSignal{
					SourceRecordID: "kc-longterm-" + pin,
					SignalType:     domain.SignalLongTermOwner10yr,
					Detail:         detailOrNil(withDetail, map[string]any{"last_sale_date": lastDate, "years": ageYears}),
					EventDate:      strPtr(lastDate),
				})
			}

			priceStr, _ := r["sale_last_price"].(string)
			price, _ := strconv.ParseFloat(priceStr, 64)
			if ageYears < 1 && price > 0 {
				signals = append(signals, domain.ExtractedSignal{
					SourceRecordID: "kc-sold-" + pin,
					SignalType:     domain.SignalRecentlySold,
					Detail:         detailOrNil(withDetail, map[string]any{"price": price, "buyer": r["sale_buyer"], "status": "sold"}),
					EventDate:      strPtr(lastDate),
				})
			}
		}
	} else {
		signals = append(signals, domain.ExtractedSignal{
			SourceRecordID: "kc-longterm-" + pin,
			SignalType:     domain.SignalLongTermOwner20yr,
			Detail:         detailOrNil(withDetail, map[string]any{"last_sale_date": nil, "years": nil}),
		})
	}

	if inForeclosure, _ := r["in_foreclosure"].(bool); inForeclosure {
		signals = append(signals, domain.ExtractedSignal{
			SourceRecordID: "kc-foreclosure-" + pin,
			SignalType:     domain.SignalForeclosure,
			Detail:         detailOrNil(withDetail, map[string]any{}),
		})
	}

	landVal, _ := r["land_val"].(float64)
	imprVal, _ := r["impr_val"].(float64)
	if landVal > 0 && imprVal < landVal*0.3 {
		ratio := 0.0
		if landVal != 0 {
			ratio = imprVal / landVal
		}
		signals = append(signals, domain.ExtractedSignal{
			SourceRecordID: "kc-lowimpr-" + pin,
			SignalType:     domain.SignalLowImprovementRatio,
			Detail:         detailOrNil(withDetail, map[string]any{"land_val": landVal, "impr_val": imprVal, "ratio": ratio}),
		})
	}

	return signals
}

func detailOrNil(withDetail bool, d map[string]any) map[string]any {
	if !withDetail {
		return nil
	}
	return d
}

// parseKCDate parses MM/DD/YYYY (the bulk CSV format) falling back to
// YYYY-MM-DD.
func parseKCDate(s string) (time.Time, bool) {
	if len(s) >= 10 {
		s = s[:10]
	}
	for _, layout := range []string{"01/02/2006", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
