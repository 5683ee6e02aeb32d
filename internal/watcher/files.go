package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher delivers debounced change batches for a fixed set of files.
type Watcher struct {
	fs        *fsnotify.Watcher
	files     map[string]struct{}
	dirs      []string
	debouncer *Debouncer
}

// New creates a watcher for the given file paths. Files need not exist
// yet, but a parent directory that does not exist is skipped; creating
// it later is not observed.
func New(paths []string, opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fs:        fsw,
		files:     make(map[string]struct{}, len(paths)),
		debouncer: NewDebouncer(opts.DebounceWindow),
	}

	watched := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := watched[dir]; ok {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			slog.Debug("watch_dir_skipped", slog.String("dir", dir))
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		watched[dir] = struct{}{}
		w.dirs = append(w.dirs, dir)
	}

	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run delivers batches to onChange until ctx is cancelled, then releases
// the underlying watcher. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func([]FileEvent)) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return nil
			}
			onChange(batch)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpRemove
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) close() {
	w.debouncer.Stop()
	_ = w.fs.Close()
}
