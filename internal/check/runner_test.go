package check

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/probe"
)

func stub(name string, status domain.Status, delay time.Duration) probe.Probe {
	return probe.Func{
		ProbeName: name,
		Fn: func(ctx context.Context) domain.CheckResult {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return domain.CheckResult{Name: name, Status: domain.StatusCritical, Message: "cancelled"}
				}
			}
			return domain.CheckResult{Name: name, Status: status, Message: "stub"}
		},
	}
}

func TestRunner_RegistrationOrderRegardlessOfCompletion(t *testing.T) {
	// The slowest probe is registered first; order must still hold.
	r := NewRunner(zap.NewNop(), 4, time.Second,
		Registration{Probe: stub("slow", domain.StatusHealthy, 50*time.Millisecond), Timeout: 500 * time.Millisecond},
		Registration{Probe: stub("mid", domain.StatusDegraded, 10*time.Millisecond), Timeout: 500 * time.Millisecond},
		Registration{Probe: stub("fast", domain.StatusHealthy, 0), Timeout: 500 * time.Millisecond},
	)
	got := r.Run(context.Background())
	if len(got) != 3 {
		t.Fatalf("want 3 results, got %d", len(got))
	}
	for i, name := range []string{"slow", "mid", "fast"} {
		if got[i].Name != name {
			t.Fatalf("position %d: want %s, got %s", i, name, got[i].Name)
		}
	}
}

func TestRunner_SequentialAndConcurrentAgree(t *testing.T) {
	build := func(conc int) *Runner {
		return NewRunner(zap.NewNop(), conc, time.Second,
			Registration{Probe: stub("a", domain.StatusHealthy, 0), Timeout: 100 * time.Millisecond},
			Registration{Probe: stub("b", domain.StatusCritical, 0), Timeout: 100 * time.Millisecond},
			Registration{Probe: stub("c", domain.StatusDegraded, 0), Timeout: 100 * time.Millisecond},
		)
	}
	seq := build(1).Run(context.Background())
	par := build(8).Run(context.Background())
	if len(seq) != len(par) {
		t.Fatalf("length mismatch: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("position %d differs: %+v vs %+v", i, seq[i], par[i])
		}
	}
}

func TestRunner_PanicBecomesCriticalResult(t *testing.T) {
	boom := probe.Func{ProbeName: "boom", Fn: func(ctx context.Context) domain.CheckResult {
		panic("probe exploded")
	}}
	r := NewRunner(zap.NewNop(), 2, time.Second,
		Registration{Probe: boom, Timeout: 100 * time.Millisecond},
		Registration{Probe: stub("ok", domain.StatusHealthy, 0), Timeout: 100 * time.Millisecond},
	)
	got := r.Run(context.Background())
	if got[0].Status != domain.StatusCritical || !strings.Contains(got[0].Message, "execution error") {
		t.Fatalf("want critical execution error, got %+v", got[0])
	}
	if got[1].Status != domain.StatusHealthy {
		t.Fatalf("sibling probe affected by panic: %+v", got[1])
	}
}

func TestRunner_TimeoutBecomesFailureResult(t *testing.T) {
	hang := probe.Func{ProbeName: "hang", Fn: func(ctx context.Context) domain.CheckResult {
		<-ctx.Done()
		// Deliberately ignore cancellation semantics and claim health late.
		return domain.CheckResult{Name: "hang", Status: domain.StatusHealthy, Message: "late"}
	}}
	r := NewRunner(zap.NewNop(), 1, time.Second,
		Registration{Probe: hang, Timeout: 20 * time.Millisecond},
	)
	got := r.Run(context.Background())
	if got[0].Status != domain.StatusCritical || !strings.Contains(got[0].Message, "timed out") {
		t.Fatalf("want critical timeout, got %+v", got[0])
	}
}

func TestRunner_TimeoutHonorsConfiguredFailureStatus(t *testing.T) {
	hang := probe.Func{ProbeName: "ntp", Fn: func(ctx context.Context) domain.CheckResult {
		<-ctx.Done()
		return domain.CheckResult{Name: "ntp", Status: domain.StatusHealthy}
	}}
	r := NewRunner(zap.NewNop(), 1, time.Second,
		Registration{Probe: hang, Timeout: 20 * time.Millisecond, OnFailure: domain.StatusDegraded},
	)
	got := r.Run(context.Background())
	if got[0].Status != domain.StatusDegraded {
		t.Fatalf("want configured degraded on failure, got %+v", got[0])
	}
}

func TestRunner_GlobalDeadlineBoundsTotalRuntime(t *testing.T) {
	// A probe that never observes ctx would block forever without the
	// runner-side select.
	stuck := probe.Func{ProbeName: "stuck", Fn: func(ctx context.Context) domain.CheckResult {
		time.Sleep(5 * time.Second)
		return domain.CheckResult{Name: "stuck", Status: domain.StatusHealthy}
	}}
	r := NewRunner(zap.NewNop(), 2, 50*time.Millisecond,
		Registration{Probe: stuck, Timeout: 10 * time.Second},
		Registration{Probe: stub("ok", domain.StatusHealthy, 0), Timeout: time.Second},
	)
	start := time.Now()
	got := r.Run(context.Background())
	elapsed := time.Since(start)
	if elapsed > time.Second {
		t.Fatalf("run exceeded global deadline by too much: %s", elapsed)
	}
	if got[0].Status != domain.StatusCritical {
		t.Fatalf("stuck probe not recorded as failure: %+v", got[0])
	}
	if !strings.Contains(got[0].Message, "global deadline") && !strings.Contains(got[0].Message, "timed out") {
		t.Fatalf("message should identify the failure mode: %q", got[0].Message)
	}
	if got[1].Status != domain.StatusHealthy {
		t.Fatalf("fast probe should still report: %+v", got[1])
	}
}

func TestRunner_InvalidProbeStatusConverted(t *testing.T) {
	bad := probe.Func{ProbeName: "bad", Fn: func(ctx context.Context) domain.CheckResult {
		return domain.CheckResult{Name: "bad", Status: domain.Status("purple")}
	}}
	r := NewRunner(zap.NewNop(), 1, time.Second, Registration{Probe: bad, Timeout: time.Second})
	got := r.Run(context.Background())
	if got[0].Status != domain.StatusCritical {
		t.Fatalf("invalid probe status must convert to failure: %+v", got[0])
	}
}
