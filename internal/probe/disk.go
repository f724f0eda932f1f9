package probe

import (
	"context"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// Disk checks used space on one mount path against warn/crit thresholds.
type Disk struct {
	Provider    providers.DiskUsageProvider
	Path        string
	WarnPercent int
	CritPercent int
}

func (d *Disk) Name() string { return "disk" }

func (d *Disk) Check(ctx context.Context) domain.CheckResult {
	pct, err := d.Provider.UsedPercent(ctx, d.Path)
	if err != nil {
		return execFailure(d.Name(), domain.StatusCritical, err)
	}
	switch {
	case pct >= d.CritPercent:
		return critical(d.Name(), "%d%% used on %s (crit >= %d%%)", pct, d.Path, d.CritPercent)
	case pct >= d.WarnPercent:
		return degraded(d.Name(), "%d%% used on %s (warn >= %d%%)", pct, d.Path, d.WarnPercent)
	default:
		return healthy(d.Name(), "%d%% used on %s", pct, d.Path)
	}
}
