package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the tree must be quiet before a rebuild
const DefaultDebounce = 500 * time.Millisecond

// Func is invoked once at start and after every settled change
type Func func(ctx context.Context) error

// Watcher re-runs a function when files under a directory change
type Watcher struct {
	dir      string
	debounce time.Duration
	fn       Func
	ignore   []string
}

// New creates a watcher for dir. Paths under any of ignore are not watched,
// so build output written inside the source tree does not retrigger.
func New(dir string, debounce time.Duration, fn Func, ignore ...string) (*Watcher, error) {
	if fn == nil {
		return nil, fmt.Errorf("watch function cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	var ign []string
	for _, p := range ignore {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		ign = append(ign, a)
	}
	return &Watcher{dir: abs, debounce: debounce, fn: fn, ignore: ign}, nil
}

// Run calls the function once, then again after each burst of changes,
// until ctx is cancelled. Errors from the function are logged and the loop
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := os.Stat(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}

	w.invoke(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	logrus.Infof("Watching %s for changes", w.dir)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Watch stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			logrus.Debugf("Change detected: %s", ev)
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						logrus.Warnf("Failed to watch new directory: %v", err)
					}
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("Watcher error: %v", err)
		case <-timer.C:
			w.invoke(ctx)
		}
	}
}

func (w *Watcher) invoke(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.fn(ctx); err != nil {
		logrus.Errorf("Rebuild failed: %v", err)
		return
	}
	logrus.Info("Rebuild finished")
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
