package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecentSalesFetcher_SkipsNonCSVResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!doctype html><html></html>"))
	}))
	defer srv.Close()

	f := &RecentSalesFetcher{
		httpClient: srv.Client(),
		zips:       []string{"98106"},
		delay:      time.Millisecond,
		logger:     discardLogger(),
	}
	records, err := f.fetchZip(context.Background(), "98106")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecentSalesFetcher_ParsesCSVFilteredToZip(t *testing.T) {
	csv := "ADDRESS,ZIP OR POSTAL CODE,PRICE,MLS#\n" +
		"123 Main St,98106,500000,MLS1\n" +
		"456 Other St,98199,900000,MLS2\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(csv))
	}))
	defer srv.Close()

	f := &RecentSalesFetcher{
		httpClient: srv.Client(),
		zips:       []string{"98106"},
		delay:      time.Millisecond,
		logger:     discardLogger(),
	}
	records, err := f.fetchZip(context.Background(), "98106")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "123 Main St", records[0]["ADDRESS"])
}

func TestRecentSalesFetcher_NonOKStatusYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := &RecentSalesFetcher{
		httpClient: srv.Client(),
		zips:       []string{"98106"},
		delay:      time.Millisecond,
		logger:     discardLogger(),
	}
	records, err := f.fetchZip(context.Background(), "98106")
	require.NoError(t, err)
	assert.Empty(t, records)
}
