// Package watcher ingests files as they appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay unchanged before it is handled.
const DefaultSettle = 500 * time.Millisecond

// HandleFunc processes one settled file.
type HandleFunc func(ctx context.Context, path string) error

// Config configures a Watcher.
type Config struct {
	Dir    string
	Settle time.Duration
	// Accept filters file names; nil accepts everything.
	Accept func(name string) bool
	Handle HandleFunc
	Logger *slog.Logger
}

// Watcher reports created or rewritten regular files of one directory,
// once writes to them have settled.
type Watcher struct {
	dir    string
	settle time.Duration
	accept func(string) bool
	handle HandleFunc
	log    *slog.Logger
}

func New(cfg Config) (*Watcher, error) {
	if cfg.Handle == nil {
		return nil, fmt.Errorf("watcher: handler is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watcher: %s is not a directory", cfg.Dir)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Accept == nil {
		cfg.Accept = func(string) bool { return true }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		dir:    cfg.Dir,
		settle: cfg.Settle,
		accept: cfg.Accept,
		handle: cfg.Handle,
		log:    cfg.Logger,
	}, nil
}

// Run watches until ctx is done. Handler errors are logged and do not stop
// the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching directory", "dir", w.dir)

	deb := newDebouncer(w.settle)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.relevant(ev); ok {
				deb.touch(path)
			}
		case due := <-deb.due:
			if !deb.take(due) {
				continue
			}
			if err := w.handle(ctx, due.path); err != nil {
				w.log.Error("handling file", "file", due.path, "error", err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

type settled struct {
	path string
	gen  uint64
}

// debouncer delays each path until no touch has arrived for settle. Only
// the latest generation of a path is taken; timers that already fired
// before a newer touch deliver a stale generation.
type debouncer struct {
	settle  time.Duration
	due     chan settled
	done    chan struct{}
	gen     uint64
	pending map[string]pendingTimer
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{
		settle:  settle,
		due:     make(chan settled),
		done:    make(chan struct{}),
		pending: make(map[string]pendingTimer),
	}
}

func (d *debouncer) touch(path string) {
	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
	}
	d.gen++
	s := settled{path: path, gen: d.gen}
	d.pending[path] = pendingTimer{
		gen: s.gen,
		timer: time.AfterFunc(d.settle, func() {
			select {
			case d.due <- s:
			case <-d.done:
			}
		}),
	}
}

// take reports whether s is the current generation of its path and, if
// so, forgets the path.
func (d *debouncer) take(s settled) bool {
	p, ok := d.pending[s.path]
	if !ok || p.gen != s.gen {
		return false
	}
	delete(d.pending, s.path)
	return true
}

// stop cancels pending timers and releases callbacks blocked on delivery.
func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
	close(d.done)
}

// relevant reports whether an event should lead to handling its file.
func (w *Watcher) relevant(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !w.accept(name) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return ev.Name, true
}
