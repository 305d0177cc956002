package internal

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoFiles is returned when a watcher is created without files.
var ErrNoFiles = errors.New("no files to watch")

// Watcher reports changes to a fixed set of files. It watches their parent
// directories so editors that replace files on save are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	events  chan string
	stopped bool
}

// NewWatcher watches files, reporting each changed path once it has been
// quiet for debounce. A non-positive debounce uses DefaultDebounce.
func NewWatcher(files []string, debounce time.Duration) (*Watcher, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		events:   make(chan string, len(files)),
	}

	dirs := make(map[string]struct{})
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Events delivers absolute paths of changed files.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Run forwards file events until ctx is cancelled, then releases the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}
	slog.Debug("file event", "path", path, "op", event.Op.String())
	w.schedule(path)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.emit(path)
	})
}

func (w *Watcher) emit(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	delete(w.pending, path)

	select {
	case w.events <- path:
	default:
		slog.Debug("dropping file event, consumer is behind", "path", path)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}
