package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diskwatch/agent/internal/checker"
	"github.com/diskwatch/agent/internal/config"
	"github.com/diskwatch/agent/internal/probe"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitDiscard()
	os.Exit(m.Run())
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context) string { return "test-host" }

type countingNotifier struct {
	published atomic.Int64
}

func (n *countingNotifier) Publish(ctx context.Context, subject, body string) error {
	n.published.Add(1)
	return nil
}

func testEnv(t *testing.T, threshold string) *config.Config {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), "diskwatch.env")
	require.NoError(t, os.WriteFile(envFile, []byte(""), 0644))
	t.Setenv("DISKWATCH_ENV_FILE", envFile)
	t.Setenv("DISKWATCH_MOUNT_PATH", "/")
	t.Setenv("DISKWATCH_THRESHOLD", threshold)
	t.Setenv("DISKWATCH_SCHEDULE", "@every 1h")
	return config.New()
}

func fakeFactory(notifier *countingNotifier, percent float64) CheckerFactory {
	return func(ctx context.Context, cfg *config.Config) (*checker.Checker, error) {
		p := probe.NewWithUsage(func(path string) (*disk.UsageStat, error) {
			return &disk.UsageStat{Path: path, UsedPercent: percent, Fstype: "ext4"}, nil
		})
		return checker.New(cfg, p, stubResolver{}, notifier), nil
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testEnv(t, "90")
	notifier := &countingNotifier{}
	app := NewApplication(cfg, fakeFactory(notifier, 50))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop after context cancel")
	}
}

func TestRunFailsWhenFactoryFails(t *testing.T) {
	cfg := testEnv(t, "90")
	app := NewApplication(cfg, func(ctx context.Context, cfg *config.Config) (*checker.Checker, error) {
		return nil, errors.New("missing topic ARN")
	})

	err := app.Run(context.Background())
	require.Error(t, err)
}

func TestRunCheckPublishesOverThreshold(t *testing.T) {
	cfg := testEnv(t, "90")
	notifier := &countingNotifier{}
	app := NewApplication(cfg, fakeFactory(notifier, 95))

	chk, err := app.factory(context.Background(), cfg)
	require.NoError(t, err)
	app.chk = chk

	app.runCheck(context.Background())
	app.runCheck(context.Background())
	require.Equal(t, int64(2), notifier.published.Load())
}

func TestReloadSwapsConfig(t *testing.T) {
	cfg := testEnv(t, "90")
	notifier := &countingNotifier{}
	app := NewApplication(cfg, fakeFactory(notifier, 85))

	chk, err := app.factory(context.Background(), cfg)
	require.NoError(t, err)
	app.chk = chk

	// 85% against threshold 90: quiet.
	app.runCheck(context.Background())
	require.Equal(t, int64(0), notifier.published.Load())

	t.Setenv("DISKWATCH_THRESHOLD", "80")
	app.reload(context.Background())
	require.Equal(t, 80, app.cfg.ThresholdPercent())

	// Same reading against the reloaded threshold: fires.
	app.runCheck(context.Background())
	require.Equal(t, int64(1), notifier.published.Load())
}

func TestReloadKeepsPreviousConfigOnFactoryError(t *testing.T) {
	cfg := testEnv(t, "90")
	calls := 0
	app := NewApplication(cfg, func(ctx context.Context, cfg *config.Config) (*checker.Checker, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("credentials unavailable")
		}
		return fakeFactory(&countingNotifier{}, 50)(ctx, cfg)
	})

	chk, err := app.factory(context.Background(), cfg)
	require.NoError(t, err)
	app.chk = chk

	t.Setenv("DISKWATCH_THRESHOLD", "70")
	app.reload(context.Background())
	require.Equal(t, 90, app.cfg.ThresholdPercent())
}
