// Package providers wraps the external subsystems the agent inspects
// (df, nvidia-smi, docker, timedatectl, wg, ip) behind narrow interfaces
// returning typed values. The core never parses tool output directly.
package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolUnavailable marks a dependency that is not installed on the device.
// Probes map it to their configured missing-tool severity.
var ErrToolUnavailable = errors.New("tool unavailable")

// CommandRunner executes one external command and returns its stdout.
// Swappable in tests so no provider test shells out.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner returns the production CommandRunner. The context bounds the
// subprocess: probe timeouts kill a wedged tool instead of waiting on it.
func ExecRunner() CommandRunner {
	return func(ctx context.Context, name string, args ...string) (string, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return "", fmt.Errorf("%s: %w", name, ErrToolUnavailable)
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return "", fmt.Errorf("%s: %s", name, msg)
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}
