// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of file events from editors.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports edits to the config file. The running configuration is
// never swapped: every effective change is logged as requiring a restart.
type Watcher struct {
	loader   *Loader
	path     string
	logger   zerolog.Logger
	debounce time.Duration

	// OnChange, if set, is called after each evaluated file change.
	OnChange func(ChangeSummary, error)

	mu      sync.RWMutex
	running AppConfig
	latest  AppConfig
}

// NewWatcher creates a watcher for the file the loader reads.
func NewWatcher(running AppConfig, loader *Loader) *Watcher {
	return &Watcher{
		loader:   loader,
		path:     loader.Path(),
		logger:   xglog.WithComponent("config"),
		debounce: DefaultDebounce,
		running:  running,
		latest:   running,
	}
}

// Running returns the configuration the process started with.
func (w *Watcher) Running() AppConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Latest returns the last valid configuration read from disk.
func (w *Watcher) Latest() AppConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

// Check re-reads and validates the file and compares it with the running
// configuration. Invalid files are reported and leave Latest unchanged.
func (w *Watcher) Check() (ChangeSummary, error) {
	next, err := w.loader.Load()
	if err != nil {
		w.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Str(xglog.FieldPath, w.path).
			Msg("changed configuration is invalid")
		return ChangeSummary{}, fmt.Errorf("load config: %w", err)
	}

	w.mu.Lock()
	w.latest = next
	running := w.running
	w.mu.Unlock()

	summary := Diff(running, next)
	if summary.RestartRequired {
		w.logger.Warn().
			Str(xglog.FieldEvent, "config.changed_restart_required").
			Str(xglog.FieldPath, w.path).
			Strs("fields", summary.ChangedFields).
			Msg("configuration changed; restart AutoLock to apply")
	} else {
		w.logger.Debug().
			Str(xglog.FieldEvent, "config.unchanged").
			Str(xglog.FieldPath, w.path).
			Msg("config file touched without effective changes")
	}
	return summary, nil
}

// Run watches the config file until ctx is done. Without a config file it
// only waits for ctx.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		w.logger.Info().
			Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file instead of writing it.
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	w.logger.Info().
		Str(xglog.FieldEvent, "config.watcher_started").
		Str(xglog.FieldPath, abs).
		Msg("watching config file for changes")

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str(xglog.FieldEvent, "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")
				debounce.Reset(w.debounce)
			}

		case <-debounce.C:
			summary, err := w.Check()
			if w.OnChange != nil {
				w.OnChange(summary, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}
