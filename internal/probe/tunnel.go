package probe

import (
	"context"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// Tunnel maps typed tunnel state to a check severity. The TunnelMonitor
// consumes the same provider for flap detection; this probe only feeds the
// health report.
type Tunnel struct {
	Provider providers.TunnelStatusProvider
}

func (t *Tunnel) Name() string { return "tunnel" }

func (t *Tunnel) Check(ctx context.Context) domain.CheckResult {
	state, err := t.Provider.State(ctx)
	if err != nil {
		return execFailure(t.Name(), domain.StatusCritical, err)
	}
	switch state {
	case domain.TunnelEstablished:
		return healthy(t.Name(), "established")
	case domain.TunnelEstablishing:
		return degraded(t.Name(), "establishing")
	default:
		return critical(t.Name(), "down")
	}
}
