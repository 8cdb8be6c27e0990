package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.Mutation("add_transaction")
	m.Mutation("add_transaction")
	m.Save("theme", nil)
	m.Save("transactions", errors.New("disk full"))
	m.Load("categories", nil)
	m.Export(nil)
	m.Request("GET /api/months/{month}", http.MethodGet, 200, 15*time.Millisecond)
	m.SecurityEvent(EventRateLimited)

	out := scrape(t, m)
	for _, want := range []string{
		`spendy_mutations_total{op="add_transaction"} 2`,
		`spendy_saves_total{result="ok",slot="theme"} 1`,
		`spendy_saves_total{result="error",slot="transactions"} 1`,
		`spendy_loads_total{result="ok",slot="categories"} 1`,
		`spendy_exports_total{result="ok"} 1`,
		`spendy_security_events_total{event="rate_limited"} 1`,
		`spendy_requests_total{code="200",method="GET",route="GET /api/months/{month}"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Mutation("set_theme")
	m.Save("theme", nil)
	m.Request("/", http.MethodGet, 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from nil metrics, got %d", rec.Code)
	}
}
