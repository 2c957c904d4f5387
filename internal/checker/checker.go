// Package checker runs one measure-evaluate-notify cycle.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/diskwatch/agent/internal/config"
	"github.com/diskwatch/agent/internal/models"
	"github.com/diskwatch/agent/internal/notify"
	"github.com/diskwatch/agent/internal/probe"
	"github.com/diskwatch/agent/pkg/logger"
)

// IdentityResolver resolves the host identifier included in alerts.
type IdentityResolver interface {
	Resolve(ctx context.Context) string
}

// Checker wires the prober, identity resolver and notifier together.
type Checker struct {
	cfg      *config.Config
	prober   *probe.Prober
	resolver IdentityResolver
	notifier notify.Notifier
}

func New(cfg *config.Config, prober *probe.Prober, resolver IdentityResolver, notifier notify.Notifier) *Checker {
	return &Checker{
		cfg:      cfg,
		prober:   prober,
		resolver: resolver,
		notifier: notifier,
	}
}

// Run performs a single check. Measurement and publish failures are fatal for
// the run; identity resolution degrades to the local hostname. Every run at
// or over threshold publishes a fresh notification, including back-to-back
// runs with an unchanged reading.
func (c *Checker) Run(ctx context.Context) (*models.CheckResult, error) {
	reading, err := c.prober.Read(c.cfg.MountPath())
	if err != nil {
		return nil, err
	}

	result := &models.CheckResult{
		Reading:   *reading,
		Threshold: c.cfg.ThresholdPercent(),
		Timestamp: time.Now().Unix(),
	}

	if !probe.OverThreshold(reading, c.cfg.ThresholdPercent()) {
		logger.Log.Debug("Disk usage under threshold",
			"mount", reading.MountPath,
			"percent", reading.Percent,
			"threshold", c.cfg.ThresholdPercent(),
		)
		return result, nil
	}

	identity := c.resolver.Resolve(ctx)
	result.Identity = identity

	alert := FormatAlert(reading, c.cfg.ThresholdPercent(), identity, time.Now())
	if err := c.notifier.Publish(ctx, alert.Subject, alert.Body); err != nil {
		return result, fmt.Errorf("disk usage is at %d%% but the alert was not delivered: %w", reading.Percent, err)
	}
	result.Alerted = true

	logger.Log.Warn("Disk usage above threshold, alert published",
		"mount", reading.MountPath,
		"percent", reading.Percent,
		"threshold", c.cfg.ThresholdPercent(),
		"host", identity,
	)
	return result, nil
}

// FormatAlert renders the notification for a reading at or over threshold.
// The subject carries the percentage and identifier so it is meaningful on
// its own in an email inbox.
func FormatAlert(reading *models.DiskReading, thresholdPercent int, identity string, now time.Time) models.Alert {
	subject := fmt.Sprintf("Disk usage alert: %d%% used on %s", reading.Percent, identity)
	body := fmt.Sprintf(
		"Disk usage on %s has reached %d%% (threshold %d%%).\n\n"+
			"Mount point: %s\n"+
			"Filesystem:  %s\n"+
			"Used:        %.1f GiB of %.1f GiB\n"+
			"Time:        %s\n",
		identity, reading.Percent, thresholdPercent,
		reading.MountPath,
		reading.Fstype,
		gib(reading.UsedBytes), gib(reading.TotalBytes),
		now.UTC().Format(time.RFC3339),
	)
	return models.Alert{Subject: subject, Body: body}
}

func gib(b uint64) float64 {
	return float64(b) / (1 << 30)
}
