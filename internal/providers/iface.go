package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// InterfaceConfigProvider reads and mutates link-level interface settings.
// SetMTU is the only mutating call in the whole provider layer.
type InterfaceConfigProvider interface {
	MTU(ctx context.Context, device string) (int, error)
	SetMTU(ctx context.Context, device string, mtu int) error
}

// IPRoute2 uses the iproute2 `ip` tool.
type IPRoute2 struct {
	Run CommandRunner
}

func (p *IPRoute2) MTU(ctx context.Context, device string) (int, error) {
	out, err := p.Run(ctx, "ip", "-o", "link", "show", "dev", device)
	if err != nil {
		return 0, err
	}
	return parseMTU(out)
}

func (p *IPRoute2) SetMTU(ctx context.Context, device string, mtu int) error {
	_, err := p.Run(ctx, "ip", "link", "set", "dev", device, "mtu", strconv.Itoa(mtu))
	return err
}

// parseMTU finds the "mtu N" pair in one-line `ip -o link show` output.
func parseMTU(out string) (int, error) {
	fields := strings.Fields(out)
	for i, f := range fields {
		if f == "mtu" && i+1 < len(fields) {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return 0, fmt.Errorf("bad mtu field %q: %w", fields[i+1], err)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("no mtu in ip output: %q", out)
}
