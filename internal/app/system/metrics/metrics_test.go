package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/api/events/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/events/{eventId}", "404"))
	if got != 3 {
		t.Errorf("requests_total: got %v, want 3", got)
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.StatusTransition("PENDING", "ACCEPTED")
	m.StatusTransition("", "PENDING")
	m.Email("status", "sent")
	m.Email("status", "failed")
	m.Reminder("j1")
	m.ReconcileRun(true, 4)

	if v := testutil.ToFloat64(m.transitions.WithLabelValues("NONE", "PENDING")); v != 1 {
		t.Errorf("transition NONE->PENDING: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.emails.WithLabelValues("status", "failed")); v != 1 {
		t.Errorf("email failed: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.credited); v != 4 {
		t.Errorf("credited: got %v, want 4", v)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.StatusTransition("PENDING", "REJECTED")
	m.Email("x", "sent")
	m.Reminder("h2")
	m.ReconcileRun(false, 0)

	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.Reminder("j3")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "standupconnect_reminders_sent_total") {
		t.Error("expected reminders counter in exposition output")
	}
}
