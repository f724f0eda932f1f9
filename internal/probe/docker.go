package probe

import (
	"context"
	"strings"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// Docker checks the daemon and the configured workload containers.
// Daemon down is critical; a stopped container is critical too since the
// analytics pipeline is not running without it.
type Docker struct {
	Provider   providers.DockerProvider
	Containers []string
}

func (d *Docker) Name() string { return "docker" }

func (d *Docker) Check(ctx context.Context) domain.CheckResult {
	if err := d.Provider.Ping(ctx); err != nil {
		return execFailure(d.Name(), domain.StatusCritical, err)
	}
	var stopped []string
	for _, name := range d.Containers {
		running, err := d.Provider.ContainerRunning(ctx, name)
		if err != nil {
			return execFailure(d.Name(), domain.StatusCritical, err)
		}
		if !running {
			stopped = append(stopped, name)
		}
	}
	if len(stopped) > 0 {
		return critical(d.Name(), "not running: %s", strings.Join(stopped, ", "))
	}
	if len(d.Containers) == 0 {
		return healthy(d.Name(), "daemon reachable")
	}
	return healthy(d.Name(), "daemon reachable, %d container(s) running", len(d.Containers))
}
