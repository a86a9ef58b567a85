package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westseattle/distressed-pipeline/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		SodaBaseURL:        baseURL,
		SodaPageSize:       2,
		SodaRateLimitDelay: time.Millisecond,
		HTTPTimeoutSmall:   5 * time.Second,
	}
}

func TestSodaPaginator_StopsOnShortPage(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		offset := r.URL.Query().Get("$offset")
		assert.Equal(t, "2", r.URL.Query().Get("$limit"))

		w.Header().Set("Content-Type", "application/json")
		switch offset {
		case "0":
			require.NoError(t, json.NewEncoder(w).Encode([]map[string]any{
				{"id": "1"}, {"id": "2"},
			}))
		case "2":
			require.NoError(t, json.NewEncoder(w).Encode([]map[string]any{
				{"id": "3"},
			}))
		default:
			t.Fatalf("unexpected offset %q", offset)
		}
	}))
	defer srv.Close()

	p := newSodaPaginator(testConfig(srv.URL))
	var pages [][]Record
	for page, err := range p.paginate(context.Background(), "abcd-1234", "1=1") {
		require.NoError(t, err)
		pages = append(pages, page)
	}

	require.Len(t, pages, 2)
	assert.Len(t, pages[0], 2)
	assert.Len(t, pages[1], 1)
	assert.Equal(t, 2, requests)
}

func TestSodaPaginator_AttachesAppToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-App-Token"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.SodaAppToken = "test-token"
	p := newSodaPaginator(cfg)

	for _, err := range p.paginate(context.Background(), "abcd-1234", "1=1") {
		require.NoError(t, err)
	}
}

func TestSodaPaginator_PropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newSodaPaginator(testConfig(srv.URL))
	var gotErr error
	for _, err := range p.paginate(context.Background(), "abcd-1234", "1=1") {
		gotErr = err
	}
	assert.Error(t, gotErr)
}
