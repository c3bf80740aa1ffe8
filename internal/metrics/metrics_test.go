package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.FetchFailed("https://a.example/rss")
	m.FetchFailed("https://a.example/rss")
	m.Fetched(5)
	m.Admitted(2)
	m.EnrichFallback("error")
	m.Stored(2)
	m.StorageFailed()
	m.CycleFinished("ok", 1500*time.Millisecond)

	if got := testutil.ToFloat64(m.FetchFailures.WithLabelValues("https://a.example/rss")); got != 2 {
		t.Fatalf("fetch failures = %v", got)
	}
	if got := testutil.ToFloat64(m.EntriesFetched); got != 5 {
		t.Fatalf("entries fetched = %v", got)
	}
	if got := testutil.ToFloat64(m.ArticlesStored); got != 2 {
		t.Fatalf("stored = %v", got)
	}
	if got := testutil.ToFloat64(m.Cycles.WithLabelValues("ok")); got != 1 {
		t.Fatalf("cycles = %v", got)
	}
}

func TestNilPipelineIsNoop(t *testing.T) {
	t.Parallel()

	var m *Pipeline
	m.FetchFailed("x")
	m.Fetched(1)
	m.Admitted(1)
	m.EnrichFallback("disabled")
	m.Stored(1)
	m.StorageFailed()
	m.CycleFinished("failed", time.Second)
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.Stored(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "newsfeed_articles_stored_total 3") {
		t.Fatalf("metric missing from output:\n%s", rec.Body.String())
	}
}
