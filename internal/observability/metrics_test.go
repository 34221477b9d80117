package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/coinvest/internal/modules/deals"
)

// Metrics must satisfy the repository's recorder
var _ deals.FetchRecorder = (*Metrics)(nil)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch(deals.ResultSuccess, 300*time.Millisecond)
	m.ObserveFetch(deals.ResultSuccess, time.Second)
	m.ObserveFetch(deals.ResultStale, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SheetFetches.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SheetFetches.WithLabelValues("stale")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SheetFetches.WithLabelValues("failure")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccess), 0.0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.SheetFetchSeconds))
}

func TestObserveBatchAndCacheHits(t *testing.T) {
	m := New()

	m.ObserveBatch(12, 2, 5)
	m.ObserveCacheHit()
	m.ObserveCacheHit()

	assert.Equal(t, 12.0, testutil.ToFloat64(m.Deals))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedRows))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowWarnings))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveFetch(deals.ResultFailure, 0)

	instrumented := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	instrumented.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `coinvest_sheet_fetches_total{result="failure"} 1`))
	assert.True(t, strings.Contains(text, `coinvest_http_requests_total{code="418",method="get"} 1`))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
