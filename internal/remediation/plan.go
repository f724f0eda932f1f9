// Package remediation drives the bounded, verified corrective workflow for
// known fault signatures: confirm the fault is present, apply the fix once,
// and poll until the device recovers or the attempt budget runs out.
package remediation

import (
	"context"
	"time"

	"github.com/hamed0406/edgehealth/internal/probe"
)

// Action is the single mutating step of a plan. It runs at most once per
// remediation run: re-applying a partially failed mutation can be unsafe.
type Action interface {
	Name() string
	Apply(ctx context.Context) error
}

// ActionFunc adapts a function to an Action.
type ActionFunc struct {
	ActionName string
	Fn         func(ctx context.Context) error
}

func (a ActionFunc) Name() string                    { return a.ActionName }
func (a ActionFunc) Apply(ctx context.Context) error { return a.Fn(ctx) }

// Plan is the immutable configuration for one fault signature.
// Precondition non-healthy means the fault is present; Postcondition
// healthy means the device recovered.
type Plan struct {
	FaultID        string
	Summary        string
	Precondition   probe.Probe
	Action         Action
	Postcondition  probe.Probe
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}
