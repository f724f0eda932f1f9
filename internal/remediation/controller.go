package remediation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/clock"
	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/metrics"
	"github.com/hamed0406/edgehealth/internal/notify"
)

var (
	// ErrRunInProgress rejects a second concurrent run for the same
	// device/fault pair.
	ErrRunInProgress = errors.New("remediation already in progress for this device/fault")
	// ErrUnknownFault rejects fault ids without a registered plan.
	ErrUnknownFault = errors.New("no remediation plan for fault")
)

// Archiver persists finished runs. Saves are best-effort: losing the
// archive copy never changes a run's outcome.
type Archiver interface {
	Save(run *domain.RemediationRun) error
}

// Controller executes remediation plans. Runs for the same device/fault
// pair are mutually exclusive; everything else may proceed in parallel.
type Controller struct {
	logger   *zap.Logger
	clk      clock.Clock
	notifier notify.Notifier
	archive  Archiver
	met      *metrics.Metrics

	mu       sync.Mutex
	plans    map[string]Plan
	inflight map[string]struct{}
}

type Option func(*Controller)

func WithNotifier(n notify.Notifier) Option { return func(c *Controller) { c.notifier = n } }
func WithArchiver(a Archiver) Option        { return func(c *Controller) { c.archive = a } }
func WithMetrics(m *metrics.Metrics) Option { return func(c *Controller) { c.met = m } }

func NewController(logger *zap.Logger, clk clock.Clock, opts ...Option) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	c := &Controller{
		logger:   logger,
		clk:      clk,
		notifier: notify.Nop{},
		plans:    make(map[string]Plan),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterPlan adds a plan. Duplicate fault ids are a wiring bug.
func (c *Controller) RegisterPlan(p Plan) error {
	if p.FaultID == "" || p.Precondition == nil || p.Action == nil || p.Postcondition == nil {
		return fmt.Errorf("incomplete plan for fault %q", p.FaultID)
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = 10 * time.Second
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.plans[p.FaultID]; dup {
		return fmt.Errorf("plan already registered for fault %q", p.FaultID)
	}
	c.plans[p.FaultID] = p
	return nil
}

// Faults lists the registered fault ids.
func (c *Controller) Faults() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.plans))
	for id := range c.plans {
		out = append(out, id)
	}
	return out
}

// Remediate runs the plan for faultID against deviceID and returns the
// finished run with its full attempt ledger. The run always lands in
// exactly one terminal state; the returned error is non-nil only for
// invocation problems (unknown fault, concurrent run).
func (c *Controller) Remediate(ctx context.Context, deviceID, faultID string) (*domain.RemediationRun, error) {
	c.mu.Lock()
	plan, ok := c.plans[faultID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownFault, faultID)
	}
	key := deviceID + "/" + faultID
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, key)
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	// The lock is held for the lifetime of the run and released on every
	// exit path.
	defer func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}()

	run := &domain.RemediationRun{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		FaultID:   faultID,
		StartedAt: c.clk.Now().UTC(),
	}
	c.logger.Info("remediation_started",
		zap.String("run_id", run.ID),
		zap.String("device", deviceID),
		zap.String("fault", faultID),
	)

	c.execute(ctx, plan, run)

	run.FinishedAt = c.clk.Now().UTC()
	c.finish(ctx, run)
	return run, nil
}

func (c *Controller) execute(ctx context.Context, plan Plan, run *domain.RemediationRun) {
	// CheckingPrecondition: confirm the fault is actually present before
	// touching anything.
	res, timedOut := c.checkProbe(ctx, plan, plan.Precondition)
	c.record(run, "precondition", res.Message, res.Status == domain.StatusHealthy)
	if ctx.Err() != nil {
		c.terminate(run, domain.RunAborted, "cancelled during precondition check")
		return
	}
	if timedOut || strings.HasPrefix(res.Message, "execution error") {
		// An unconfirmed fault is not a confirmed fault. Refuse to mutate.
		c.terminate(run, domain.RunFailed, fmt.Sprintf("could not evaluate precondition: %s", res.Message))
		return
	}
	if res.Status == domain.StatusHealthy {
		c.terminate(run, domain.RunNotApplicable, fmt.Sprintf("precondition not met: %s", res.Message))
		return
	}

	// Applying: the corrective action runs exactly once. Failures are
	// terminal, never retried.
	actx, cancel := context.WithTimeout(ctx, plan.AttemptTimeout)
	err := plan.Action.Apply(actx)
	cancel()
	if err != nil {
		c.record(run, "action", err.Error(), false)
		if ctx.Err() != nil {
			c.terminate(run, domain.RunAborted, "cancelled while applying action")
			return
		}
		c.terminate(run, domain.RunFailed, fmt.Sprintf("action %s failed: %v", plan.Action.Name(), err))
		return
	}
	c.record(run, "action", fmt.Sprintf("%s applied", plan.Action.Name()), true)

	// VerifyingPostcondition: poll within the configured budget. A verify
	// attempt that times out is just a failed attempt; the run continues.
	for attempt := 1; attempt <= plan.MaxAttempts; attempt++ {
		res, _ := c.checkProbe(ctx, plan, plan.Postcondition)
		recovered := res.Status == domain.StatusHealthy
		c.record(run, fmt.Sprintf("verify %d/%d", attempt, plan.MaxAttempts), res.Message, recovered)
		if recovered {
			c.terminate(run, domain.RunSuccess, fmt.Sprintf("recovered on attempt %d: %s", attempt, res.Message))
			return
		}
		if ctx.Err() != nil {
			c.terminate(run, domain.RunAborted, "cancelled during verification")
			return
		}
		if attempt == plan.MaxAttempts {
			break
		}
		if plan.Backoff > 0 {
			select {
			case <-ctx.Done():
				c.terminate(run, domain.RunAborted, "cancelled during verification backoff")
				return
			case <-c.clk.After(plan.Backoff):
			}
		}
	}
	c.terminate(run, domain.RunFailed,
		fmt.Sprintf("postcondition not satisfied after %d attempts", plan.MaxAttempts))
}

// checkProbe bounds a single pre/postcondition probe call. The per-attempt
// timeout cancels only this attempt, never the whole run.
func (c *Controller) checkProbe(ctx context.Context, plan Plan, p probeChecker) (domain.CheckResult, bool) {
	cctx, cancel := context.WithTimeout(ctx, plan.AttemptTimeout)
	defer cancel()
	res := p.Check(cctx)
	timedOut := errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	return res, timedOut
}

type probeChecker interface {
	Check(ctx context.Context) domain.CheckResult
}

func (c *Controller) record(run *domain.RemediationRun, stage, outcome string, ok bool) {
	run.Attempts = append(run.Attempts, domain.Attempt{
		Timestamp: c.clk.Now().UTC(),
		Stage:     stage,
		Outcome:   outcome,
		OK:        ok,
	})
}

func (c *Controller) terminate(run *domain.RemediationRun, state domain.RunState, reason string) {
	run.FinalState = state
	run.Reason = reason
}

func (c *Controller) finish(ctx context.Context, run *domain.RemediationRun) {
	c.logger.Info("remediation_finished",
		zap.String("run_id", run.ID),
		zap.String("device", run.DeviceID),
		zap.String("fault", run.FaultID),
		zap.String("final_state", string(run.FinalState)),
		zap.String("reason", run.Reason),
		zap.Int("attempts", len(run.Attempts)),
	)
	if c.met != nil {
		c.met.RemediationRuns.WithLabelValues(run.FaultID, string(run.FinalState)).Inc()
	}
	if c.archive != nil {
		if err := c.archive.Save(run); err != nil {
			c.logger.Warn("remediation_archive_error", zap.Error(err))
		}
	}
	// NotApplicable is routine; only real outcomes are announced.
	if run.FinalState == domain.RunSuccess || run.FinalState == domain.RunFailed {
		title := fmt.Sprintf("Remediation %s: %s", run.FinalState, run.FaultID)
		text := fmt.Sprintf("device %s\nrun %s\n%s", run.DeviceID, run.ID, run.Reason)
		if err := c.notifier.Send(ctx, title, text); err != nil {
			c.logger.Warn("remediation_notify_error", zap.Error(err))
		}
	}
}
