package check

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/probe"
)

// Registration pairs a probe with its timeout and the severity recorded
// when the probe itself fails to execute (panic, timeout, cancellation).
type Registration struct {
	Probe   probe.Probe
	Timeout time.Duration
	// OnFailure defaults to critical when unset.
	OnFailure domain.Status
}

// Runner executes registered probes under a global deadline with bounded
// concurrency. Results always come back in registration order so reports
// stay diffable regardless of completion order.
type Runner struct {
	logger      *zap.Logger
	regs        []Registration
	concurrency int
	deadline    time.Duration
}

func NewRunner(logger *zap.Logger, concurrency int, deadline time.Duration, regs ...Registration) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if deadline <= 0 {
		deadline = 45 * time.Second
	}
	return &Runner{
		logger:      logger,
		regs:        regs,
		concurrency: concurrency,
		deadline:    deadline,
	}
}

// Names returns the registered probe names in registration order.
func (r *Runner) Names() []string {
	out := make([]string, len(r.regs))
	for i, reg := range r.regs {
		out[i] = reg.Probe.Name()
	}
	return out
}

// Run executes every probe. Probe failures never surface as runner
// failures; they become critical (or OnFailure) CheckResults, so a slow or
// broken subsystem cannot block the whole report.
func (r *Runner) Run(ctx context.Context) []domain.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	results := make([]domain.CheckResult, len(r.regs))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, reg := range r.regs {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, reg Registration) {
			defer func() { <-sem }()
			defer wg.Done()
			results[i] = r.runOne(ctx, reg)
		}(i, reg)
	}

	wg.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, reg Registration) domain.CheckResult {
	name := reg.Probe.Name()
	timeout := reg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan domain.CheckResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- domain.CheckResult{
					Name:    name,
					Status:  failureStatus(reg),
					Message: fmt.Sprintf("execution error: panic: %v", p),
				}
			}
		}()
		done <- reg.Probe.Check(cctx)
	}()

	var res domain.CheckResult
	select {
	case res = <-done:
		// A probe that ignored its context and returned a stale result
		// after the deadline still counts as a timeout.
		if cctx.Err() != nil && res.Status == domain.StatusHealthy {
			res = timeoutResult(ctx, reg, timeout, r.deadline)
		}
	case <-cctx.Done():
		res = timeoutResult(ctx, reg, timeout, r.deadline)
	}

	if res.Name == "" {
		res.Name = name
	}
	if !res.Status.Valid() {
		res = domain.CheckResult{
			Name:    name,
			Status:  failureStatus(reg),
			Message: fmt.Sprintf("execution error: invalid status %q", res.Status),
		}
	}

	r.logger.Debug("check_done",
		zap.String("check", name),
		zap.String("status", string(res.Status)),
		zap.String("message", res.Message),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

func timeoutResult(parent context.Context, reg Registration, timeout, deadline time.Duration) domain.CheckResult {
	msg := fmt.Sprintf("timed out after %s", timeout)
	if parent.Err() != nil {
		msg = fmt.Sprintf("cancelled: global deadline %s exceeded", deadline)
	}
	return domain.CheckResult{
		Name:    reg.Probe.Name(),
		Status:  failureStatus(reg),
		Message: msg,
	}
}

func failureStatus(reg Registration) domain.Status {
	if reg.OnFailure.Valid() {
		return reg.OnFailure
	}
	return domain.StatusCritical
}
