package probe

import (
	"context"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// GPU checks GPU temperature. Missing controls the severity when the vendor
// tool is absent (critical by default: an inference device without a visible
// GPU cannot do its job).
type GPU struct {
	Provider  providers.GPUStatsProvider
	WarnTempC int
	CritTempC int
	Missing   domain.Status
}

func (g *GPU) Name() string { return "gpu" }

func (g *GPU) Check(ctx context.Context) domain.CheckResult {
	temp, err := g.Provider.TemperatureC(ctx)
	if err != nil {
		return execFailure(g.Name(), g.Missing, err)
	}
	switch {
	case temp >= g.CritTempC:
		return critical(g.Name(), "%d°C (crit >= %d°C)", temp, g.CritTempC)
	case temp >= g.WarnTempC:
		return degraded(g.Name(), "%d°C (warn >= %d°C)", temp, g.WarnTempC)
	default:
		return healthy(g.Name(), "%d°C", temp)
	}
}
