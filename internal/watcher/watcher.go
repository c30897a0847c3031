// Package watcher provides debounced file system watching for vault
// directory trees.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is the time to wait after the last event for a path before
// delivering it. This coalesces rapid successive writes (editors typically
// truncate then write) into a single notification.
const debounceDelay = 100 * time.Millisecond

// Op describes what happened to a document.
type Op int

const (
	// OpWrite covers creation and content changes.
	OpWrite Op = iota
	// OpRemove covers deletion and rename-away.
	OpRemove
)

// Event is a debounced change notification for a single document path,
// relative to the watched root with forward slashes.
type Event struct {
	Path string
	Op   Op
}

// Watcher watches a vault directory tree recursively and delivers per-path
// debounced events to a handler.
type Watcher struct {
	fsw     *fsnotify.Watcher
	root    string
	handler func(Event)

	// Expired debounce timers hand their event to the Run loop through
	// events; the handler is only ever invoked from that single loop, so
	// handlers touching non-reentrant state need no locking of their own.
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher rooted at dir. Every non-hidden subdirectory is
// watched; directories created later are added during Run. The handler is
// invoked from the Run loop, one debounced event at a time.
func New(dir string, handler func(Event)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		root:    dir,
		handler: handler,
		events:  make(chan Event),
		done:    make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}

	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run starts the watch loop. It blocks until the context is canceled.
// Errors from the underlying watcher are passed to the optional errFn
// callback.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			for _, t := range w.timers {
				t.Stop()
			}
			w.mu.Unlock()
			return
		case e := <-w.events:
			w.handler(e)
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.dispatch(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying filesystem watcher and releases any expired
// debounce timers still waiting to deliver.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.fsw.Close()
}

func (w *Watcher) dispatch(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return
	}

	// New directories need their own watch for recursion to hold.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addTree(event.Name)
			return
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.debounce(Event{Path: rel, Op: OpWrite})
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debounce(Event{Path: rel, Op: OpRemove})
	}
}

// debounce resets the per-path timer; the last op within the window wins.
// An expired timer does not call the handler itself: it queues the event
// for the Run loop, so deliveries for different paths never overlap.
func (w *Watcher) debounce(e Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[e.Path]; ok {
		t.Stop()
	}
	w.timers[e.Path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, e.Path)
		w.mu.Unlock()
		select {
		case w.events <- e:
		case <-w.done:
		}
	})
}

// addTree watches dir and all of its non-hidden subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
