package probe

import (
	"context"

	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/providers"
)

// MTU verifies that a tunnel interface carries the expected MTU. It doubles
// as the precondition probe of the tunnel-mtu remediation plan: non-healthy
// means the fault is present.
type MTU struct {
	Provider providers.InterfaceConfigProvider
	Device   string
	Expected int
}

func (m *MTU) Name() string { return "mtu" }

func (m *MTU) Check(ctx context.Context) domain.CheckResult {
	mtu, err := m.Provider.MTU(ctx, m.Device)
	if err != nil {
		return execFailure(m.Name(), domain.StatusCritical, err)
	}
	if mtu != m.Expected {
		return critical(m.Name(), "%s mtu %d, want %d", m.Device, mtu, m.Expected)
	}
	return healthy(m.Name(), "%s mtu %d", m.Device, mtu)
}
