package providers

import (
	"context"
	"strings"
)

// TimeSyncProvider reports whether the system clock is NTP-synchronized.
type TimeSyncProvider interface {
	Synchronized(ctx context.Context) (bool, error)
}

// Timedatectl queries systemd-timesyncd state.
type Timedatectl struct {
	Run CommandRunner
}

func (t *Timedatectl) Synchronized(ctx context.Context) (bool, error) {
	out, err := t.Run(ctx, "timedatectl", "show", "--property=NTPSynchronized", "--value")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(out), "yes"), nil
}
