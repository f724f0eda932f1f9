package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DiskUsageProvider reports filesystem usage for a mount path.
type DiskUsageProvider interface {
	UsedPercent(ctx context.Context, path string) (int, error)
}

// DFDiskUsage shells out to POSIX df.
type DFDiskUsage struct {
	Run CommandRunner
}

func (d *DFDiskUsage) UsedPercent(ctx context.Context, path string) (int, error) {
	out, err := d.Run(ctx, "df", "-Pk", path)
	if err != nil {
		return 0, err
	}
	return parseDFPercent(out)
}

// parseDFPercent extracts the capacity column from `df -Pk` output:
//
//	Filesystem 1024-blocks Used Available Capacity Mounted on
//	/dev/sda1  61255492    52000000 6100000 90% /
func parseDFPercent(out string) (int, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("unexpected df output: %q", out)
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 5 {
		return 0, fmt.Errorf("unexpected df row: %q", lines[len(lines)-1])
	}
	pct := strings.TrimSuffix(fields[4], "%")
	n, err := strconv.Atoi(pct)
	if err != nil {
		return 0, fmt.Errorf("bad capacity field %q: %w", fields[4], err)
	}
	return n, nil
}
