package domain

// Status is the severity of a single check or of a whole report.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Severity maps a status onto the total order healthy < degraded < critical.
// Unknown values map to -1 so they never win an aggregation by accident.
func (s Status) Severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusCritical:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the three defined statuses.
func (s Status) Valid() bool {
	return s.Severity() >= 0
}

// Worse returns the higher-severity of the two statuses.
func (s Status) Worse(other Status) Status {
	if other.Severity() > s.Severity() {
		return other
	}
	return s
}
