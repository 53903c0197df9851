package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()
	r.Upstream("shifts", "400")
	r.Upstream("shifts", "400")
	r.Fallback("paging")
	r.Lookup("single", "error")
	r.TokenRefresh("ok")

	if got := testutil.ToFloat64(r.UpstreamRequests.WithLabelValues("shifts", "400")); got != 2 {
		t.Errorf("upstream counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.ProbeFallbacks.WithLabelValues("paging")); got != 1 {
		t.Errorf("fallback counter = %v, want 1", got)
	}
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *Registry
	r.Upstream("shifts", "200")
	r.Fallback("window")
	r.Lookup("batch", "ok")
	r.TokenRefresh("error")
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Fallback("half_day")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `portal_probe_fallbacks_total{kind="half_day"} 1`) {
		t.Errorf("metrics output missing fallback counter:\n%s", body)
	}
}
