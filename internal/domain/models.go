package domain

import "time"

// CheckResult is the immutable outcome of a single probe.
type CheckResult struct {
	Name    string `json:"check"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// HealthReport aggregates one evaluation cycle. Checks keep registration
// order so reports stay diffable across runs.
type HealthReport struct {
	SiteID    string        `json:"site_id"`
	Timestamp time.Time     `json:"timestamp"`
	Overall   Status        `json:"overall_status"`
	Checks    []CheckResult `json:"checks"`
}

// TunnelState is the connectivity state of the VPN tunnel.
type TunnelState string

const (
	TunnelDown         TunnelState = "down"
	TunnelEstablishing TunnelState = "establishing"
	TunnelEstablished  TunnelState = "established"
)

// TunnelEvent is one observed tunnel state at a point in time.
type TunnelEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	State     TunnelState `json:"state"`
}
