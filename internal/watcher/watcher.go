// Package watcher watches directories with fsnotify and reports debounced file changes.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Op is the kind of change reported for a file.
type Op int

const (
	// OpChanged means the file was created or written.
	OpChanged Op = iota
	// OpRemoved means the file is gone.
	OpRemoved
)

func (o Op) String() string {
	if o == OpRemoved {
		return "removed"
	}
	return "changed"
}

// Event is a debounced file change.
type Event struct {
	Path string
	Op   Op
}

// Handler receives events. It is called from timer goroutines, never concurrently for the
// same path.
type Handler func(Event)

// Watcher watches root directories and invokes a Handler for matching files.
type Watcher struct {
	roots     []string
	filter    func(path string) bool
	recursive bool
	handler   Handler
	debounce  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*time.Timer
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithExtensions only reports files with one of the given extensions (case-insensitive,
// leading dot optional). No extensions means every file.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		prev := w.filter
		w.filter = func(path string) bool {
			return prev(path) && matchExtension(path, exts)
		}
	}
}

// WithFilter adds a predicate a path must satisfy to be reported.
func WithFilter(fn func(path string) bool) Option {
	return func(w *Watcher) {
		prev := w.filter
		w.filter = func(path string) bool {
			return prev(path) && fn(path)
		}
	}
}

// WithRecursive sets whether subdirectories are watched. Default true.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithDebounce sets how long a path must be quiet before its event fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over roots. Call Start to begin watching.
func New(roots []string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:     append([]string(nil), roots...),
		filter:    func(string) bool { return true },
		recursive: true,
		handler:   handler,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start creates missing roots, adds them to the fsnotify watcher and runs until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := addRoot(fsw, root, w.recursive); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.started = true
	w.logger.Debug("watcher started", zap.Strings("roots", w.roots), zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func addRoot(fsw *fsnotify.Watcher, root string, recursive bool) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive {
				if err := addRoot(fsw, path, true); err != nil {
					w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
				w.syncDir(path)
			}
			return
		}
		if w.filter(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if w.filter(path) {
			w.schedule(path)
		}
	}
}

// schedule (re)arms the debounce timer for path. The op is decided when the timer fires, so
// a remove followed by a re-create (atomic save) is reported as a change.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.emit(path)
	})
}

func (w *Watcher) emit(path string) {
	op := OpChanged
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		op = OpRemoved
	}
	w.logger.Debug("watcher emitting event", zap.String("path", path), zap.Stringer("op", op))
	if w.handler != nil {
		w.handler(Event{Path: path, Op: op})
	}
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if inDir(filepath.Clean(root), path) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Sync reports every existing matching file under the roots as changed. Use it after Start to
// pick up files that were present before the watcher began.
func (w *Watcher) Sync() {
	for _, root := range w.roots {
		w.syncDir(root)
	}
}

func (w *Watcher) syncDir(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if w.filter(path) && w.handler != nil {
			w.handler(Event{Path: filepath.Clean(path), Op: OpChanged})
		}
		return nil
	})
}

// Roots returns a copy of the watched root directories.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher, cancels pending events and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
