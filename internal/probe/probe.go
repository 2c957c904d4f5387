// Package probe measures filesystem utilization for a single mount point.
package probe

import (
	"fmt"
	"math"

	"github.com/diskwatch/agent/internal/models"
	"github.com/shirou/gopsutil/v3/disk"
)

// UsageFunc is the function signature used to read filesystem usage.
// Exposed so tests can substitute readings.
type UsageFunc func(path string) (*disk.UsageStat, error)

// Prober reads disk utilization for a mount point.
type Prober struct {
	usageFunc UsageFunc
}

// New creates a Prober backed by the platform statfs via gopsutil.
func New() *Prober {
	return &Prober{
		usageFunc: disk.Usage,
	}
}

// NewWithUsage creates a Prober with a custom usage function. Intended for
// testing.
func NewWithUsage(fn UsageFunc) *Prober {
	return &Prober{
		usageFunc: fn,
	}
}

// Read measures utilization of the filesystem mounted at mountPath. The
// percentage is rounded to the nearest integer and must land in 0-100;
// anything else means the mount point is bogus and the reading is rejected.
func (p *Prober) Read(mountPath string) (*models.DiskReading, error) {
	if mountPath == "" {
		return nil, fmt.Errorf("mount path must not be empty")
	}

	usage, err := p.usageFunc(mountPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage for %s: %w", mountPath, err)
	}

	percent := int(math.Round(usage.UsedPercent))
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("invalid utilization reading %d%% for %s", percent, mountPath)
	}

	return &models.DiskReading{
		MountPath:  mountPath,
		Percent:    percent,
		UsedBytes:  usage.Used,
		TotalBytes: usage.Total,
		Fstype:     usage.Fstype,
		RawPercent: usage.UsedPercent,
	}, nil
}

// OverThreshold reports whether a reading triggers an alert. The comparison
// is inclusive: a reading exactly at threshold fires. There is no hysteresis
// and no duplicate suppression; every run at or over threshold fires again.
func OverThreshold(reading *models.DiskReading, thresholdPercent int) bool {
	return reading.Percent >= thresholdPercent
}
