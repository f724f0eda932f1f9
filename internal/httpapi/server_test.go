package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/remediation"
	"github.com/hamed0406/edgehealth/internal/report"
)

type fakeTunnel struct {
	state     domain.TunnelState
	flaps     int
	escalated bool
}

func (f *fakeTunnel) State() domain.TunnelState { return f.state }
func (f *fakeTunnel) FlapCount() int            { return f.flaps }
func (f *fakeTunnel) Escalated() bool           { return f.escalated }

type fakeArchive struct {
	runs      []domain.RemediationRun
	lastLimit int
}

func (f *fakeArchive) List(limit int) ([]domain.RemediationRun, error) {
	f.lastLimit = limit
	return f.runs, nil
}

type fakeRemediator struct {
	run *domain.RemediationRun
	err error
}

func (f *fakeRemediator) Remediate(ctx context.Context, deviceID, faultID string) (*domain.RemediationRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *fakeRemediator) Faults() []string { return []string{"tunnel-mtu"} }

func newTestServer(t *testing.T) (*Server, *fakeRemediator) {
	t.Helper()
	rem := &fakeRemediator{
		run: &domain.RemediationRun{ID: "run-1", DeviceID: "edge-01", FaultID: "tunnel-mtu", FinalState: domain.RunSuccess},
	}
	return &Server{
		Logger:     zap.NewNop(),
		Latest:     &report.Latest{},
		Tunnel:     &fakeTunnel{state: domain.TunnelEstablished, flaps: 1},
		Runs:       &fakeArchive{},
		Controller: rem,
	}, rem
}

func TestReport_NotFoundBeforeFirstCycle(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 before first report, got %d", rec.Code)
	}
}

func TestReport_ServesLatest(t *testing.T) {
	s, _ := newTestServer(t)
	s.Latest.Set(domain.HealthReport{
		SiteID:    "edge-01",
		Timestamp: time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
		Overall:   domain.StatusDegraded,
		Checks: []domain.CheckResult{
			{Name: "disk", Status: domain.StatusDegraded, Message: "88% used"},
		},
	})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body["overall_status"] != "degraded" {
		t.Fatalf("overall_status = %v", body["overall_status"])
	}
	checks := body["checks"].([]any)
	if got := checks[0].(map[string]any)["check"]; got != "disk" {
		t.Fatalf("per-check key = %v", got)
	}
}

func TestTunnelStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tunnel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["state"] != "established" || body["flaps"] != float64(1) {
		t.Fatalf("unexpected tunnel body: %v", body)
	}
}

func TestListRuns_LimitValidation(t *testing.T) {
	s, _ := newTestServer(t)
	arch := s.Runs.(*fakeArchive)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/remediations?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if arch.lastLimit != 5 {
		t.Fatalf("limit not forwarded: %d", arch.lastLimit)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty archive should serialize as [], got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/remediations?limit=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for bad limit, got %d", rec.Code)
	}
}

func TestRemediate_TriggerAndErrorMapping(t *testing.T) {
	s, rem := newTestServer(t)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/remediate", strings.NewReader(body))
		s.Router().ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"device_id":"edge-01","fault_id":"tunnel-mtu"}`); rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := post(`{"device_id":"edge-01"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for missing fault_id, got %d", rec.Code)
	}

	rem.err = remediation.ErrUnknownFault
	if rec := post(`{"device_id":"edge-01","fault_id":"nope"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 for unknown fault, got %d", rec.Code)
	}

	rem.err = remediation.ErrRunInProgress
	if rec := post(`{"device_id":"edge-01","fault_id":"tunnel-mtu"}`); rec.Code != http.StatusConflict {
		t.Fatalf("want 409 for in-progress run, got %d", rec.Code)
	}
}

func TestRemediate_AdminKeyGuard(t *testing.T) {
	s, _ := newTestServer(t)
	s.AdminKeys = []string{"adm_key"}
	router := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/remediate",
		strings.NewReader(`{"device_id":"edge-01","fault_id":"tunnel-mtu"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 without key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/remediate",
		strings.NewReader(`{"device_id":"edge-01","fault_id":"tunnel-mtu"}`))
	req.Header.Set("X-API-Key", "adm_key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 with admin key, got %d", rec.Code)
	}

	// Read endpoints stay open.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/faults", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("read endpoint guarded by admin key: %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	// Without a gatherer the route is absent.
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 without gatherer, got %d", rec.Code)
	}

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "edgehealth_test_total"})
	reg.MustRegister(c)
	c.Inc()
	s.Gatherer = reg

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 from /metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "edgehealth_test_total 1") {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}
