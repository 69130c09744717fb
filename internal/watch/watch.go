// Package watch notices when a configured source file is replaced on disk.
//
// The parent directories are watched rather than the files themselves so
// that atomic replacement (write to temp, rename over) is observed. Bursts
// of events are collapsed into one notification per debounce window.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"raganswer/internal/logger"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// SourceWatcher reports changes to a fixed set of files.
type SourceWatcher struct {
	fsw      *fsnotify.Watcher
	paths    map[string]struct{}
	debounce time.Duration
	onChange func(ctx context.Context, changed []string)
	log      logger.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// New watches the given file paths. onChange receives the absolute paths
// that changed, sorted.
func New(paths []string, debounce time.Duration, onChange func(ctx context.Context, changed []string), log logger.Logger) (*SourceWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &SourceWatcher{
		fsw:      fsw,
		paths:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		onChange: onChange,
		log:      log,
		pending:  make(map[string]struct{}),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers change notifications until ctx is done, then closes the
// underlying watcher.
func (w *SourceWatcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("source watcher error", "error", err)
		}
	}
}

func (w *SourceWatcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	if _, ok := w.paths[abs]; !ok {
		return
	}
	w.log.Debug("source changed", "path", abs, "op", ev.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[abs] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

func (w *SourceWatcher) flush(ctx context.Context) {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()
	sort.Strings(changed)

	if len(changed) == 0 || ctx.Err() != nil {
		return
	}
	w.onChange(ctx, changed)
}

func (w *SourceWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
