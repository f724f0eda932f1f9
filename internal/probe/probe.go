package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// Probe is a named, independently-timed unit of work inspecting one
// external subsystem. Implementations must observe ctx and return promptly
// on cancellation.
type Probe interface {
	Name() string
	Check(ctx context.Context) domain.CheckResult
}

// Func adapts a plain function to a Probe.
type Func struct {
	ProbeName string
	Fn        func(ctx context.Context) domain.CheckResult
}

func (f Func) Name() string { return f.ProbeName }

func (f Func) Check(ctx context.Context) domain.CheckResult {
	return f.Fn(ctx)
}

func healthy(name, format string, args ...any) domain.CheckResult {
	return result(name, domain.StatusHealthy, format, args...)
}

func degraded(name, format string, args ...any) domain.CheckResult {
	return result(name, domain.StatusDegraded, format, args...)
}

func critical(name, format string, args ...any) domain.CheckResult {
	return result(name, domain.StatusCritical, format, args...)
}

func result(name string, status domain.Status, format string, args ...any) domain.CheckResult {
	return domain.CheckResult{Name: name, Status: status, Message: fmt.Sprintf(format, args...)}
}

// execFailure maps a provider error onto a result: a missing tool gets the
// probe's configured severity, anything else is an execution error.
func execFailure(name string, missingSeverity domain.Status, err error) domain.CheckResult {
	if errors.Is(err, providers.ErrToolUnavailable) {
		return result(name, missingSeverity, "%v", err)
	}
	return critical(name, "execution error: %v", err)
}
