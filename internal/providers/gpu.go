package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// GPUStatsProvider reports GPU temperature.
type GPUStatsProvider interface {
	TemperatureC(ctx context.Context) (int, error)
}

// NvidiaSMI queries the first GPU via nvidia-smi.
type NvidiaSMI struct {
	Run CommandRunner
}

func (n *NvidiaSMI) TemperatureC(ctx context.Context) (int, error) {
	out, err := n.Run(ctx, "nvidia-smi", "--query-gpu=temperature.gpu", "--format=csv,noheader,nounits")
	if err != nil {
		return 0, err
	}
	return parseGPUTemperature(out)
}

func parseGPUTemperature(out string) (int, error) {
	// Multi-GPU devices report one line per GPU; the hottest one decides.
	hottest := -1
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		t, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return 0, fmt.Errorf("bad temperature line %q: %w", line, err)
		}
		if t > hottest {
			hottest = t
		}
	}
	if hottest < 0 {
		return 0, fmt.Errorf("no temperature in nvidia-smi output: %q", out)
	}
	return hottest, nil
}
