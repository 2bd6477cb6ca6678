package loader

import (
	"log/slog"
	"time"
)

// WatcherBuilderOption is a functional option for configuring a Watcher via NewWatcher.
type WatcherBuilderOption func(*watcher)

// WithDebounce sets the quiet period before changes are reported. Values <= 0 are ignored.
//
// Parameters:
//   - d: the quiet period
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the structured logger for watcher errors.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithWatcherLogger(logger *slog.Logger) WatcherBuilderOption {
	return func(w *watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}
