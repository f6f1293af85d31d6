package codebase

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-indexes the whole codebase after source files change. Bursts
// of events are collapsed into one run per debounce interval.
type Watcher struct {
	codebase *Codebase
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onIndex  func(IndexStats, error)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for c. onIndex, if set, is called after
// every triggered run.
func NewWatcher(c *Codebase, debounce time.Duration, onIndex func(IndexStats, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		codebase: c,
		fsw:      fsw,
		debounce: debounce,
		onIndex:  onIndex,
	}, nil
}

// Start watches every directory under the root that indexing would
// descend into, and processes events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.codebase.Root()); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			log.Warning("cannot watch directory", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.codebase.Root() && w.codebase.SkipDir(w.rel(p)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			log.Warning("cannot watch directory", "path", p, "error", err)
		}
		return nil
	})
}

func (w *Watcher) rel(p string) string {
	r, err := filepath.Rel(w.codebase.Root(), p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(r)
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	rel := w.rel(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.codebase.SkipDir(rel) {
				return
			}
			if err := w.addTree(event.Name); err != nil {
				log.Warning("cannot watch new directory", "path", event.Name, "error", err)
			}
			w.schedule(ctx)
			return
		}
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A removed directory may have held sources.
		if w.codebase.SelectFile(rel) || filepath.Ext(rel) == "" {
			w.schedule(ctx)
		}
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		if w.codebase.SelectFile(rel) {
			w.schedule(ctx)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.reindex(ctx) })
}

func (w *Watcher) reindex(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Debug("sources changed, re-indexing", "root", w.codebase.Root())
	stats, err := w.codebase.Index(ctx, nil)
	if err != nil {
		log.Warning("re-index failed", "root", w.codebase.Root(), "error", err)
	}
	if w.onIndex != nil {
		w.onIndex(stats, err)
	}
}
