package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"time"

	"github.com/westseattle/distressed-pipeline/internal/config"
)

// sodaPaginator is the shared pagination/rate-limiting behavior for every
// fetcher backed by Seattle's SODA API. Concrete fetchers hold one in a
// field and pass it their own $where clause and dataset id.
type sodaPaginator struct {
	httpClient *http.Client
	baseURL    string
	appToken   string
	pageSize   int
	delay      time.Duration
}

func newSodaPaginator(cfg *config.Config) sodaPaginator {
	return sodaPaginator{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeoutSmall},
		baseURL:    cfg.SodaBaseURL,
		appToken:   cfg.SodaAppToken,
		pageSize:   cfg.SodaPageSize,
		delay:      cfg.SodaRateLimitDelay,
	}
}

// paginate yields successive pages from datasetID filtered by whereClause,
// stopping when a page returns fewer than pageSize rows. Sleeps delay
// between requests (not before the first or after the last).
func (p sodaPaginator) paginate(ctx context.Context, datasetID, whereClause string) iter.Seq2[[]Record, error] {
	return func(yield func([]Record, error) bool) {
		endpoint := fmt.Sprintf("%s/%s.json", p.baseURL, datasetID)
		offset := 0

		for {
			records, err := p.fetchPage(ctx, endpoint, whereClause, offset)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(records) == 0 {
				return
			}
			if !yield(records, nil) {
				return
			}

			offset += len(records)
			if len(records) < p.pageSize {
				return
			}

			select {
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			case <-time.After(p.delay):
			}
		}
	}
}

func (p sodaPaginator) fetchPage(ctx context.Context, endpoint, whereClause string, offset int) ([]Record, error) {
	params := url.Values{
		"$where":  {whereClause},
		"$limit":  {fmt.Sprintf("%d", p.pageSize)},
		"$offset": {fmt.Sprintf("%d", offset)},
		"$order":  {":id"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building SODA request: %w", err)
	}
	if p.appToken != "" {
		req.Header.Set("X-App-Token", p.appToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s (offset %d): %w", endpoint, offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SODA API %s returned status %d", endpoint, resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding SODA response from %s: %w", endpoint, err)
	}
	return records, nil
}

// quotedZipList renders a zip whitelist as a SODA `in(...)` operand:
// 'a','b','c'.
func quotedZipList(zips []string) string {
	out := ""
	for i, z := range zips {
		if i > 0 {
			out += ","
		}
		out += "'" + z + "'"
	}
	return out
}
