package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/diskwatch/agent/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// ReloadEvent signals that the watched config file changed on disk.
type ReloadEvent struct {
	Path      string
	Timestamp time.Time
}

// Watcher monitors the agent's env file so configuration can be reloaded
// without restarting the service. The parent directory is watched rather
// than the file itself, so editors that replace the file are still seen.
type Watcher struct {
	filePath      string
	events        chan ReloadEvent
	errors        chan error
	fsWatcher     *fsnotify.Watcher
	debounceTimer *time.Timer
	debounceMu    sync.Mutex
	debounceDelay time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(filePath string, appCtx context.Context) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}
	ctx, cancel := context.WithCancel(appCtx)
	return &Watcher{
		filePath:      abs,
		events:        make(chan ReloadEvent, 8),
		errors:        make(chan error, 8),
		fsWatcher:     fsWatcher,
		debounceDelay: 500 * time.Millisecond, // Debounce rapid events
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start begins watching the config file's directory.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(filepath.Dir(w.filePath)); err != nil {
		return err
	}
	logger.Log.Info("Config watcher started", "path", w.filePath)
	w.wg.Add(2)
	go w.eventLoop()
	go w.errorLoop()
	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	w.cancel()
	w.fsWatcher.Close()
	w.wg.Wait()
	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()
	close(w.events)
	close(w.errors)
	logger.Log.Info("Config watcher stopped")
}

// Events returns the channel of reload events.
func (w *Watcher) Events() <-chan ReloadEvent {
	return w.events
}

// Errors returns the channel of errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		}
	}
}

func (w *Watcher) errorLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				logger.Log.Error("Error channel full, dropping error", "err", err)
			}
		}
	}
}

// handleEvent processes a single fsnotify event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.filePath {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.debounceEvent()
}

// debounceEvent collapses rapid successive writes into one reload
func (w *Watcher) debounceEvent() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		reload := ReloadEvent{
			Path:      w.filePath,
			Timestamp: time.Now(),
		}
		select {
		case w.events <- reload:
		case <-w.ctx.Done():
		default:
			logger.Log.Warn("Events channel full, dropping reload event", "path", w.filePath)
		}
	})
}
