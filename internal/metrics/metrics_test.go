package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StoreOp("Deals", "load", nil)
	m.StoreOp("Deals", "load", nil)
	m.StoreOp("Deals", "append", errors.New("boom"))
	m.CacheLookup("Deals", true)
	m.CacheLookup("Deals", false)
	m.StatusTransition("Completed")
	m.RateLimited("POST")
	m.SuspiciousRequest("agent")
	m.SuspiciousRequest("agent")

	if got := testutil.ToFloat64(m.storeOps.WithLabelValues("Deals", "load", ResultOK)); got != 2 {
		t.Errorf("store ok = %v", got)
	}
	if got := testutil.ToFloat64(m.storeOps.WithLabelValues("Deals", "append", ResultError)); got != 1 {
		t.Errorf("store error = %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookup.WithLabelValues("Deals", ResultHit)); got != 1 {
		t.Errorf("cache hit = %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("Completed")); got != 1 {
		t.Errorf("transitions = %v", got)
	}
	if got := testutil.ToFloat64(m.rateLimited.WithLabelValues("POST")); got != 1 {
		t.Errorf("rate limited = %v", got)
	}
	if got := testutil.ToFloat64(m.suspicious.WithLabelValues("agent")); got != 2 {
		t.Errorf("suspicious = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.StoreOp("Deals", "load", nil)
	m.CacheLookup("Deals", true)
	m.StatusTransition("Pending")
	m.RateLimited("POST")
	m.SuspiciousRequest("pattern")
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.StatusTransition("Completed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `dealtracker_status_transitions_total{to="Completed"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
