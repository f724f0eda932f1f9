package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers an escalation or remediation announcement.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans out to every configured notifier and combines failures so one
// broken channel does not hide the others.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, title, text))
	}
	return errs
}

// Nop discards everything. Used when no webhook is configured.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }
