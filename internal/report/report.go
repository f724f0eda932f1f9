// Package report builds the health report consumed by monitoring
// collaborators and maps it onto the process exit code contract.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/check"
	"github.com/hamed0406/edgehealth/internal/clock"
	"github.com/hamed0406/edgehealth/internal/domain"
)

// ErrUnknownStatus marks a status outside the exit code table. This is a
// configuration defect: we refuse to guess rather than silently map it.
var ErrUnknownStatus = errors.New("unknown overall status")

// Emitter assembles HealthReports for one site.
type Emitter struct {
	SiteID string
	Logger *zap.Logger
	Clock  clock.Clock
}

func NewEmitter(siteID string, logger *zap.Logger, clk clock.Clock) *Emitter {
	if clk == nil {
		clk = clock.New()
	}
	return &Emitter{SiteID: siteID, Logger: logger, Clock: clk}
}

// Build aggregates runner output into a report. An empty check set is a
// configuration error surfaced to the caller; no report is produced.
func (e *Emitter) Build(results []domain.CheckResult) (domain.HealthReport, error) {
	overall, err := check.Overall(results)
	if err != nil {
		return domain.HealthReport{}, err
	}
	rep := domain.HealthReport{
		SiteID:    e.SiteID,
		Timestamp: e.Clock.Now().UTC(),
		Overall:   overall,
		Checks:    results,
	}
	e.Logger.Info("report_built",
		zap.String("site_id", rep.SiteID),
		zap.String("overall_status", string(rep.Overall)),
		zap.Int("checks", len(rep.Checks)),
	)
	return rep, nil
}

// WriteJSON serializes the stable report schema.
func WriteJSON(w io.Writer, rep domain.HealthReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ExitCode maps overall status onto the supervisor contract:
// healthy=0, degraded=1, critical=2. No other mapping exists.
func ExitCode(s domain.Status) (int, error) {
	switch s {
	case domain.StatusHealthy:
		return 0, nil
	case domain.StatusDegraded:
		return 1, nil
	case domain.StatusCritical:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Latest holds the most recent report for the HTTP surface. The agent loop
// is the only writer.
type Latest struct {
	mu  sync.RWMutex
	rep domain.HealthReport
	ok  bool
}

func (l *Latest) Set(rep domain.HealthReport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rep = rep
	l.ok = true
}

func (l *Latest) Latest() (domain.HealthReport, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rep, l.ok
}
