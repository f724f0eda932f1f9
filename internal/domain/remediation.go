package domain

import "time"

// RunState is a remediation state-machine state.
type RunState string

const (
	RunIdle                 RunState = "idle"
	RunCheckingPrecondition RunState = "checking_precondition"
	RunApplying             RunState = "applying"
	RunVerifying            RunState = "verifying_postcondition"

	// Terminal states. A finished run is never mutated or re-entered.
	RunSuccess       RunState = "success"
	RunFailed        RunState = "failed"
	RunNotApplicable RunState = "not_applicable"
	RunAborted       RunState = "aborted"
)

// Terminal reports whether s ends a run.
func (s RunState) Terminal() bool {
	switch s {
	case RunSuccess, RunFailed, RunNotApplicable, RunAborted:
		return true
	}
	return false
}

// Attempt is one ledger entry of a remediation run: a precondition check,
// the corrective action, or a postcondition poll.
type Attempt struct {
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage"`
	Outcome   string    `json:"outcome"`
	OK        bool      `json:"ok"`
}

// RemediationRun is the full record of one remediation invocation,
// sufficient for an operator to decide on further action.
type RemediationRun struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	FaultID    string    `json:"fault_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempts   []Attempt `json:"attempts"`
	FinalState RunState  `json:"final_state"`
	Reason     string    `json:"reason"`
}
