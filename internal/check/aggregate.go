package check

import (
	"errors"
	"fmt"

	"github.com/hamed0406/edgehealth/internal/domain"
)

// ErrNoChecks signals an empty check set. That is a configuration defect,
// not an environmental condition: callers must treat it as fatal instead of
// defaulting to healthy.
var ErrNoChecks = errors.New("no check results to aggregate")

// Overall reduces check results to the maximum severity present.
// Commutative: the order of results does not affect the outcome.
func Overall(results []domain.CheckResult) (domain.Status, error) {
	if len(results) == 0 {
		return "", ErrNoChecks
	}
	overall := domain.StatusHealthy
	for _, r := range results {
		if !r.Status.Valid() {
			return "", fmt.Errorf("check %q has invalid status %q", r.Name, r.Status)
		}
		overall = overall.Worse(r.Status)
	}
	return overall, nil
}
