package probe

import (
	"context"
	"strings"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// Cameras checks TCP reachability of every configured camera service
// address. All down is critical, a partial outage is degraded.
type Cameras struct {
	Dialer    providers.CameraDialer
	Addresses []string
}

func (c *Cameras) Name() string { return "cameras" }

func (c *Cameras) Check(ctx context.Context) domain.CheckResult {
	if len(c.Addresses) == 0 {
		return healthy(c.Name(), "no cameras configured")
	}
	var unreachable []string
	for _, addr := range c.Addresses {
		if ctx.Err() != nil {
			return critical(c.Name(), "execution error: %v", ctx.Err())
		}
		if err := c.Dialer.Reachable(ctx, addr); err != nil {
			unreachable = append(unreachable, addr)
		}
	}
	switch {
	case len(unreachable) == len(c.Addresses):
		return critical(c.Name(), "all %d unreachable: %s", len(c.Addresses), strings.Join(unreachable, ", "))
	case len(unreachable) > 0:
		return degraded(c.Name(), "%d/%d unreachable: %s", len(unreachable), len(c.Addresses), strings.Join(unreachable, ", "))
	default:
		return healthy(c.Name(), "%d/%d reachable", len(c.Addresses), len(c.Addresses))
	}
}
