// Package watch reloads an analysis file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors and tools that replace the file atomically (write to a temp file,
// rename over the original) keep triggering reloads. Bursts of events are
// debounced into one reload.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/archmap/pkg/graph"
)

// DefaultDebounce is the quiet period before a reload.
const DefaultDebounce = 150 * time.Millisecond

// Handler receives every reload. err is non-nil when the file could not be
// read or parsed; the previous analysis stays valid in that case.
type Handler func(a *graph.Analysis, err error)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *log.Logger

	// SkipInitial suppresses the load performed when Run starts.
	SkipInitial bool
}

// Watcher reloads one analysis file.
type Watcher struct {
	path     string
	handler  Handler
	debounce time.Duration
	logger   *log.Logger
	initial  bool

	mu      sync.Mutex
	reloads int
}

// New creates a watcher for path.
func New(path string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Watcher{
		path:     abs,
		handler:  handler,
		debounce: opts.Debounce,
		logger:   opts.Logger.With("file", filepath.Base(abs)),
		initial:  !opts.SkipInitial,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Reloads returns how many times the handler has been called.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Debug("watching", "dir", filepath.Dir(w.path))

	if w.initial {
		w.reload()
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	a, err := graph.ReadAnalysisFile(w.path)
	if err != nil {
		w.logger.Warn("reload failed", "err", err)
	} else {
		w.logger.Info("reloaded", "nodes", len(a.Graph.Nodes), "detections", len(a.Detections))
	}
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.handler(a, err)
}
