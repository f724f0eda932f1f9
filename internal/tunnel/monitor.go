// Package tunnel tracks VPN connectivity transitions and detects flapping:
// repeated short-lived recoveries that indicate a sick link rather than a
// single outage.
package tunnel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/clock"
	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/metrics"
	"github.com/hamed0406/edgehealth/internal/notify"
)

// Monitor is the per-device tunnel state machine. A flap is recorded on
// every established→down transition; when the count inside the sliding
// window reaches the threshold a page-level event fires exactly once per
// crossing. The escalation auto-clears once the window ages out with the
// tunnel established.
type Monitor struct {
	device    string
	window    time.Duration
	threshold int
	clk       clock.Clock
	logger    *zap.Logger
	notifier  notify.Notifier
	met       *metrics.Metrics

	mu        sync.Mutex
	state     domain.TunnelState
	flaps     []time.Time
	escalated bool
}

func NewMonitor(device string, window time.Duration, threshold int, clk clock.Clock, logger *zap.Logger, notifier notify.Notifier, met *metrics.Metrics) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if threshold < 1 {
		threshold = 1
	}
	return &Monitor{
		device:    device,
		window:    window,
		threshold: threshold,
		clk:       clk,
		logger:    logger,
		notifier:  notifier,
		met:       met,
	}
}

// Observe feeds one periodic tunnel state sample into the machine.
func (m *Monitor) Observe(ctx context.Context, state domain.TunnelState) {
	m.mu.Lock()
	now := m.clk.Now()
	m.evict(now)

	prev := m.state
	m.state = state
	if prev != state {
		m.logger.Info("tunnel_transition",
			zap.String("device", m.device),
			zap.String("from", string(prev)),
			zap.String("to", string(state)),
		)
	}

	if prev == domain.TunnelEstablished && state == domain.TunnelDown {
		m.flaps = append(m.flaps, now)
		if m.met != nil {
			m.met.TunnelFlaps.Inc()
		}
		m.logger.Warn("tunnel_flap",
			zap.String("device", m.device),
			zap.Int("flaps_in_window", len(m.flaps)),
			zap.Duration("window", m.window),
		)
	}

	var announce func()
	switch {
	case !m.escalated && len(m.flaps) >= m.threshold:
		m.escalated = true
		if m.met != nil {
			m.met.TunnelEscalations.Inc()
		}
		count := len(m.flaps)
		announce = func() {
			m.page(ctx, "Tunnel flapping",
				fmt.Sprintf("device %s: %d flaps within %s (threshold %d)", m.device, count, m.window, m.threshold))
		}
	case m.escalated && len(m.flaps) == 0 && state == domain.TunnelEstablished:
		m.escalated = false
		announce = func() {
			m.page(ctx, "Tunnel flapping cleared",
				fmt.Sprintf("device %s: established with no flaps in the last %s", m.device, m.window))
		}
	}
	m.mu.Unlock()

	// Webhook delivery happens outside the lock so a slow channel cannot
	// stall the next observation.
	if announce != nil {
		announce()
	}
}

// FlapCount returns the number of flaps currently inside the window.
func (m *Monitor) FlapCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict(m.clk.Now())
	return len(m.flaps)
}

// Escalated reports whether the page-level condition is currently raised.
func (m *Monitor) Escalated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escalated
}

// State returns the last observed tunnel state.
func (m *Monitor) State() domain.TunnelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// evict drops flap records older than the window. Monotonic: the slice is
// append-only ordered, so the cut is a prefix.
func (m *Monitor) evict(now time.Time) {
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(m.flaps) && !m.flaps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		m.flaps = append(m.flaps[:0], m.flaps[i:]...)
	}
}

func (m *Monitor) page(ctx context.Context, title, text string) {
	m.logger.Warn("tunnel_escalation",
		zap.String("device", m.device),
		zap.String("title", title),
		zap.String("text", text),
	)
	if err := m.notifier.Send(ctx, title, text); err != nil {
		m.logger.Warn("tunnel_escalation_notify_error", zap.Error(err))
	}
}
