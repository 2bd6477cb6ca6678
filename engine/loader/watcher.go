package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a watched file must stay quiet before a change is reported.
const DefaultDebounce = 250 * time.Millisecond

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	debounce time.Duration

	fs       *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	pending  map[string]bool
	timer    *time.Timer
	onChange func(paths []string)

	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Watcher reports model files that changed on disk.
// Parent directories are watched so editors that replace files by rename are seen.
// Bursts of events are coalesced: onChange runs once per quiet period on a timer goroutine.
type Watcher interface {
	// Add starts watching files.
	//
	// Parameters:
	//   - paths: files to watch
	//
	// Returns:
	//   - error: error if a directory cannot be watched
	Add(paths ...string) error

	// Close stops watching. Safe to call multiple times.
	//
	// Returns:
	//   - error: error from the underlying watcher
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher creates a file watcher.
//
// Parameters:
//   - onChange: called with the sorted changed paths after each quiet period
//   - options: functional options
//
// Returns:
//   - Watcher: the watcher
//   - error: error if the platform watcher cannot be created
func NewWatcher(onChange func(paths []string), options ...WatcherBuilderOption) (Watcher, error) {
	if onChange == nil {
		panic("loader: NewWatcher requires a change callback")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &watcher{
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		fs:       fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		pending:  make(map[string]bool),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *watcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("loader: watcher closed")
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		dir := filepath.Dir(abs)
		if !w.dirs[dir] {
			if err := w.fs.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			w.dirs[dir] = true
		}
		w.files[abs] = true
	}
	return nil
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.touch(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "err", err)
		}
	}
}

// touch records a change to name and restarts the quiet period.
func (w *watcher) touch(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	abs, err := filepath.Abs(name)
	if err != nil || !w.files[abs] || w.closed {
		return
	}
	w.pending[abs] = true
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.Sort(paths)
	w.logger.Debug("model files changed", "paths", paths)
	w.onChange(paths)
}
