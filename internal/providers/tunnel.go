package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/edgehealth/internal/domain"
)

// TunnelStatusProvider reports the typed state of the VPN tunnel.
type TunnelStatusProvider interface {
	State(ctx context.Context) (domain.TunnelState, error)
}

// WireGuard derives tunnel state from peer handshake age. A handshake older
// than StaleAfter means DPD would have declared the peer dead.
type WireGuard struct {
	Run        CommandRunner
	Interface  string
	StaleAfter time.Duration
	Now        func() time.Time // defaults to time.Now
}

func (w *WireGuard) State(ctx context.Context) (domain.TunnelState, error) {
	out, err := w.Run(ctx, "wg", "show", w.Interface, "latest-handshakes")
	if err != nil {
		if strings.Contains(err.Error(), "No such device") {
			return domain.TunnelDown, nil
		}
		return domain.TunnelDown, err
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return parseHandshakes(out, now(), w.StaleAfter)
}

// parseHandshakes reads `wg show <if> latest-handshakes` output, one
// "<pubkey>\t<unix-epoch>" line per peer. Epoch 0 means the peer is
// configured but has never completed a handshake.
func parseHandshakes(out string, now time.Time, staleAfter time.Duration) (domain.TunnelState, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return domain.TunnelDown, nil
	}
	state := domain.TunnelDown
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return domain.TunnelDown, fmt.Errorf("unexpected wg output line: %q", line)
		}
		epoch, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return domain.TunnelDown, fmt.Errorf("bad handshake epoch %q: %w", fields[1], err)
		}
		if epoch == 0 {
			if state == domain.TunnelDown {
				state = domain.TunnelEstablishing
			}
			continue
		}
		if now.Sub(time.Unix(epoch, 0)) <= staleAfter {
			return domain.TunnelEstablished, nil
		}
	}
	return state, nil
}
