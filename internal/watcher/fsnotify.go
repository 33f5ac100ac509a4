package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tokendex/tokendex/internal/errors"
)

type watchKind int

const (
	watchFile watchKind = iota
	watchDir
)

// FsnotifyWatcher implements Watcher on top of fsnotify. A translation
// goroutine normalizes raw notifications into canonical events and feeds the
// queue that Poll drains.
type FsnotifyWatcher struct {
	fs    *fsnotify.Watcher
	queue *Queue
	opts  Options

	mu      sync.Mutex
	watched map[string]watchKind
	readErr error
	closed  bool

	translateDone chan struct{}
}

var _ Watcher = (*FsnotifyWatcher)(nil)

// NewFsnotifyWatcher creates a watcher backed by the platform notification
// facility. Resource exhaustion during initialization surfaces as a fatal
// error with a named kind.
func NewFsnotifyWatcher(opts Options) (*FsnotifyWatcher, error) {
	opts = opts.WithDefaults()

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatcherInitError(err)
	}

	w := &FsnotifyWatcher{
		fs:            fs,
		queue:         NewQueue(opts.EventBuffer),
		opts:          opts,
		watched:       make(map[string]watchKind),
		translateDone: make(chan struct{}),
	}
	go w.translate()
	return w, nil
}

// AddFile watches a regular file for modification and removal.
func (w *FsnotifyWatcher) AddFile(path string) error {
	return w.add(path, watchFile)
}

// AddDirectory watches a directory for new children and its own removal.
func (w *FsnotifyWatcher) AddDirectory(path string) error {
	return w.add(path, watchDir)
}

func (w *FsnotifyWatcher) add(path string, kind watchKind) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New(errors.ErrCodeWatcherRead, "watcher is closed", nil)
	}
	if existing, ok := w.watched[path]; ok && existing == kind {
		return nil
	}
	if err := w.fs.Add(path); err != nil {
		return errors.PathInaccessibleError(path, err)
	}
	w.watched[path] = kind
	return nil
}

// RemovePath releases the watch on path. Unknown paths are a no-op.
func (w *FsnotifyWatcher) RemovePath(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if _, ok := w.watched[path]; !ok {
		return nil
	}
	delete(w.watched, path)
	// The kernel may have dropped the watch already (deleted path); that is
	// not an error from the caller's point of view.
	_ = w.fs.Remove(path)
	return nil
}

// Poll returns all events accumulated since the previous call, blocking at
// most PollTimeout to coalesce.
func (w *FsnotifyWatcher) Poll() []Event {
	return w.queue.Drain(w.opts.PollTimeout)
}

// Close releases OS handles. It returns the first fatal read error observed
// by the translation loop, if any. Safe to call multiple times.
func (w *FsnotifyWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	_ = w.fs.Close()
	<-w.translateDone
	w.queue.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readErr != nil {
		return errors.WatcherReadError(w.readErr)
	}
	return nil
}

// Dropped returns the number of events dropped due to queue overflow.
func (w *FsnotifyWatcher) Dropped() uint64 {
	return w.queue.Dropped()
}

// translate drains raw fsnotify notifications until the watcher closes.
func (w *FsnotifyWatcher) translate() {
	defer close(w.translateDone)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.recordError(err)
		}
	}
}

// handle normalizes one raw notification into canonical events.
func (w *FsnotifyWatcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	parent := filepath.Dir(path)

	w.mu.Lock()
	selfKind, selfWatched := w.watched[path]
	parentKind, parentWatched := w.watched[parent]
	w.mu.Unlock()

	dirWatched := parentWatched && parentKind == watchDir

	switch {
	case ev.Op&fsnotify.Create != 0:
		if !dirWatched {
			return // stale notification for a removed watch
		}
		isDir := false
		if info, err := os.Stat(path); err == nil {
			isDir = info.IsDir()
		}
		w.queue.Push(Event{Kind: Created, Path: path, IsDir: isDir})

	case ev.Op&fsnotify.Write != 0:
		if selfWatched && selfKind == watchDir {
			return // Modified is never emitted for a directory
		}
		if !selfWatched && !dirWatched {
			return
		}
		w.queue.Push(Event{Kind: Modified, Path: path, IsDir: false})

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		// Rename-away is indistinguishable from removal at this layer.
		if selfWatched {
			w.mu.Lock()
			delete(w.watched, path) // kernel already dropped the watch
			w.mu.Unlock()
			w.queue.Push(Event{Kind: Deleted, Path: path, IsDir: selfKind == watchDir})
			return
		}
		if dirWatched {
			w.queue.Push(Event{Kind: Deleted, Path: path, IsDir: false})
		}

	case ev.Op&fsnotify.Chmod != 0:
		// Permission changes do not affect index contents.
	}
}

func (w *FsnotifyWatcher) recordError(err error) {
	slog.Warn("watcher read error", slog.String("error", err.Error()))
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readErr == nil {
		w.readErr = err
	}
}
