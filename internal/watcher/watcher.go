// Package watcher reports filesystem changes inside source folders so the
// catalog can rescan without user action.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

// debounceWindow coalesces editor-style write bursts into one callback.
const debounceWindow = 500 * time.Millisecond

// FSWatcher watches source folders recursively through fsnotify. New
// subdirectories are picked up as they appear; events on one path are
// debounced so a burst of writes triggers a single callback.
type FSWatcher struct {
	logger *slog.Logger

	mu       sync.Mutex
	fw       *fsnotify.Watcher
	callback func(path string, event EventType)
	timers   map[string]*time.Timer
	started  bool
}

func NewFSWatcher(logger *slog.Logger) (*FSWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FSWatcher{
		logger: logger,
		fw:     fw,
		timers: make(map[string]*time.Timer),
	}, nil
}

// Watch registers path and all of its subdirectories. The first call starts
// the event loop; it runs until ctx is cancelled or Stop is called.
func (w *FSWatcher) Watch(ctx context.Context, path string) error {
	if err := w.addRecursive(path); err != nil {
		return err
	}

	w.mu.Lock()
	if !w.started {
		w.started = true
		go w.loop(ctx)
	}
	w.mu.Unlock()

	w.logger.Info("watching folder", "path", path)
	return nil
}

func (w *FSWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return w.fw.Add(p)
	})
}

func (w *FSWatcher) Stop() error {
	return w.fw.Close()
}

func (w *FSWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
}

func (w *FSWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.fw.Close()
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *FSWatcher) handleEvent(event fsnotify.Event) {
	var et EventType
	switch {
	case event.Has(fsnotify.Create):
		et = EventCreate
		// A created directory needs its own watch before events inside
		// it can be seen.
		if err := w.addRecursive(event.Name); err != nil {
			w.logger.Debug("could not watch new path", "path", event.Name, "error", err)
		}
	case event.Has(fsnotify.Write):
		et = EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		et = EventDelete
	default:
		return
	}

	w.debounce(event.Name, et)
}

func (w *FSWatcher) debounce(path string, et EventType) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.timers, path)
		cb := w.callback
		w.mu.Unlock()

		if cb != nil {
			cb(path, et)
		}
	})
}

var _ Watcher = (*FSWatcher)(nil)
