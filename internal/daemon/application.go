package daemon

import (
	"context"
	"sync"

	"github.com/diskwatch/agent/internal/checker"
	"github.com/diskwatch/agent/internal/config"
	"github.com/diskwatch/agent/internal/watcher"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CheckerFactory builds a checker for the given configuration. The daemon
// calls it again whenever the config file is reloaded.
type CheckerFactory func(ctx context.Context, cfg *config.Config) (*checker.Checker, error)

// Application is the long-running side of the agent: a cron schedule firing
// the check, plus a config watcher that swaps the checker in place.
type Application struct {
	mu      sync.Mutex
	cfg     *config.Config
	chk     *checker.Checker
	factory CheckerFactory
	cron    *cron.Cron
	entryID cron.EntryID
	watcher *watcher.Watcher
}

func NewApplication(cfg *config.Config, factory CheckerFactory) *Application {
	return &Application{
		cfg:     cfg,
		factory: factory,
	}
}

// Run blocks until appCtx is cancelled. A failed scheduled run is logged and
// left for the next firing; there is no in-process retry.
func (app *Application) Run(appCtx context.Context) error {
	chk, err := app.factory(appCtx, app.cfg)
	if err != nil {
		return err
	}
	app.mu.Lock()
	app.chk = chk
	app.mu.Unlock()

	app.cron = cron.New()
	entryID, err := app.cron.AddFunc(app.cfg.Schedule(), func() {
		app.runCheck(appCtx)
	})
	if err != nil {
		return err
	}
	app.entryID = entryID
	app.cron.Start()
	logger.Log.Info("Check scheduled",
		"schedule", app.cfg.Schedule(),
		"mount", app.cfg.MountPath(),
		"threshold", app.cfg.ThresholdPercent(),
	)

	app.startWatcher(appCtx)

	<-appCtx.Done()
	app.Shutdown()
	return nil
}

// Shutdown stops the schedule and the config watcher.
func (app *Application) Shutdown() {
	if app.cron != nil {
		<-app.cron.Stop().Done()
		app.cron = nil
	}
	if app.watcher != nil {
		app.watcher.Stop()
		app.watcher = nil
	}
}

func (app *Application) runCheck(ctx context.Context) {
	app.mu.Lock()
	chk := app.chk
	app.mu.Unlock()

	result, err := chk.Run(ctx)
	if err != nil {
		logger.Log.Error("Check run failed, waiting for next scheduled run", "err", err)
		return
	}
	logger.Log.Info("Check run completed",
		"mount", result.Reading.MountPath,
		"percent", result.Reading.Percent,
		"alerted", result.Alerted,
	)
}

// startWatcher wires the config file watcher. The daemon still works without
// it; edits then require a service restart.
func (app *Application) startWatcher(appCtx context.Context) {
	w, err := watcher.NewWatcher(app.cfg.EnvFilePath(), appCtx)
	if err != nil {
		logger.Log.Warn("Failed to create config watcher", "err", err)
		return
	}
	if err := w.Start(); err != nil {
		logger.Log.Warn("Failed to start config watcher", "err", err)
		return
	}
	app.watcher = w
	go app.handleReloads(appCtx, w)
	go app.handleWatcherErrors(appCtx, w)
}

func (app *Application) handleReloads(appCtx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-appCtx.Done():
			return
		case event, ok := <-w.Events():
			if !ok {
				return
			}
			logger.Log.Info("Config file changed, reloading", "path", event.Path)
			app.reload(appCtx)
		}
	}
}

func (app *Application) handleWatcherErrors(appCtx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-appCtx.Done():
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", "err", err)
		}
	}
}

// reload re-reads the environment and swaps in a new checker. Any failure
// keeps the previous configuration running.
func (app *Application) reload(ctx context.Context) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		logger.Log.Error("Reloaded config is invalid, keeping previous", "err", err)
		return
	}
	chk, err := app.factory(ctx, cfg)
	if err != nil {
		logger.Log.Error("Failed to rebuild checker, keeping previous", "err", err)
		return
	}

	app.mu.Lock()
	prevSchedule := app.cfg.Schedule()
	app.cfg = cfg
	app.chk = chk
	app.mu.Unlock()

	if app.cron != nil && prevSchedule != cfg.Schedule() {
		app.cron.Remove(app.entryID)
		entryID, err := app.cron.AddFunc(cfg.Schedule(), func() {
			app.runCheck(ctx)
		})
		if err != nil {
			logger.Log.Error("Invalid schedule in reloaded config, check is no longer scheduled", "schedule", cfg.Schedule(), "err", err)
			return
		}
		app.entryID = entryID
	}

	logger.Log.Info("Config reloaded",
		"mount", cfg.MountPath(),
		"threshold", cfg.ThresholdPercent(),
		"schedule", cfg.Schedule(),
	)
}
