package runner

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/observability"
	"github.com/westseattle/distressed-pipeline/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testController(t *testing.T) *Controller {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return New(cfg, st, observability.NewMetricsForTesting(), discardLogger())
}

func TestBuildFetchers_AllSourcesWhenEmpty(t *testing.T) {
	c := testController(t)
	fetchers, err := c.buildFetchers("")
	require.NoError(t, err)
	require.Len(t, fetchers, len(sourceOrder))

	var names []string
	for _, f := range fetchers {
		names = append(names, f.SourceName())
	}
	assert.Equal(t, sourceOrder, names)
}

func TestBuildFetchers_SingleKnownSource(t *testing.T) {
	c := testController(t)
	fetchers, err := c.buildFetchers("permits")
	require.NoError(t, err)
	require.Len(t, fetchers, 1)
	assert.Equal(t, "permits", fetchers[0].SourceName())
}

func TestBuildFetchers_UnknownSourceErrors(t *testing.T) {
	c := testController(t)
	_, err := c.buildFetchers("not_a_real_source")
	assert.Error(t, err)
}

func TestPrintTierBreakdown_DoesNotPanicOnEmptyStore(t *testing.T) {
	c := testController(t)
	c.printTierBreakdown(context.Background())
}
