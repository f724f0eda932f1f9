// Package httpapi serves the agent's local HTTP surface: the latest health
// report, tunnel status, the remediation archive, and a guarded trigger for
// manual remediation runs.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/httpapi/middleware"
	"github.com/hamed0406/edgehealth/internal/remediation"
	"github.com/hamed0406/edgehealth/internal/report"
)

// RunArchive is the read side of the remediation run store.
type RunArchive interface {
	List(limit int) ([]domain.RemediationRun, error)
}

// Remediator triggers runs and lists the known fault signatures.
type Remediator interface {
	Remediate(ctx context.Context, deviceID, faultID string) (*domain.RemediationRun, error)
	Faults() []string
}

// TunnelStatus is the monitor's read-only view.
type TunnelStatus interface {
	State() domain.TunnelState
	FlapCount() int
	Escalated() bool
}

type Server struct {
	Logger     *zap.Logger
	Latest     *report.Latest
	Tunnel     TunnelStatus
	Runs       RunArchive
	Controller Remediator
	Gatherer   prometheus.Gatherer

	AdminKeys       []string
	RateLimitPerMin int
	RateLimitBurst  int
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(s.RateLimitPerMin, s.RateLimitBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/report", s.handleReport)
	r.Get("/api/tunnel", s.handleTunnel)
	r.Get("/api/remediations", s.handleListRuns)
	r.Get("/api/faults", s.handleFaults)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(s.AdminKeys))
		r.Post("/api/remediate", s.handleRemediate)
	})

	if s.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// handleReport returns the most recent health report. Before the first
// check cycle completes there is nothing to serve, which is a 404 rather
// than an empty report a collector could mistake for healthy.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.Latest.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no report yet")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTunnel(w http.ResponseWriter, r *http.Request) {
	if s.Tunnel == nil {
		writeError(w, http.StatusNotFound, "tunnel monitoring disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     s.Tunnel.State(),
		"flaps":     s.Tunnel.FlapCount(),
		"escalated": s.Tunnel.Escalated(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		writeJSON(w, http.StatusOK, []domain.RemediationRun{})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = n
	}
	runs, err := s.Runs.List(limit)
	if err != nil {
		s.Logger.Error("runlog_list_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	if runs == nil {
		runs = []domain.RemediationRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleFaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"faults": s.Controller.Faults()})
}

type remediatePayload struct {
	DeviceID string `json:"device_id"`
	FaultID  string `json:"fault_id"`
}

// handleRemediate runs the plan synchronously: run length is bounded by the
// plan's attempt budget, and the caller gets the full attempt ledger back.
func (s *Server) handleRemediate(w http.ResponseWriter, r *http.Request) {
	var p remediatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.DeviceID == "" || p.FaultID == "" {
		writeError(w, http.StatusBadRequest, "device_id and fault_id required")
		return
	}
	run, err := s.Controller.Remediate(r.Context(), p.DeviceID, p.FaultID)
	switch {
	case errors.Is(err, remediation.ErrUnknownFault):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, remediation.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.Logger.Error("remediate_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "remediation failed to start")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
