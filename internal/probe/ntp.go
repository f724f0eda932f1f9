package probe

import (
	"context"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// NTP checks clock synchronization. Missing defaults to degraded: video
// timestamps drift but the device keeps working.
type NTP struct {
	Provider providers.TimeSyncProvider
	Missing  domain.Status
}

func (n *NTP) Name() string { return "ntp" }

func (n *NTP) Check(ctx context.Context) domain.CheckResult {
	synced, err := n.Provider.Synchronized(ctx)
	if err != nil {
		return execFailure(n.Name(), n.Missing, err)
	}
	if !synced {
		return degraded(n.Name(), "clock not synchronized")
	}
	return healthy(n.Name(), "clock synchronized")
}
