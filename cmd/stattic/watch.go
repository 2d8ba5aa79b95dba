package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-stattic/internal/fileutil"
	"github.com/alnah/go-stattic/internal/logfields"
)

// watchDebounce coalesces bursts of filesystem events into one rebuild.
const watchDebounce = 500 * time.Millisecond

// runWatchCmd builds once, then rebuilds on every change under the
// content, templates and assets directories until ctx is canceled.
// Config file changes need a restart.
func runWatchCmd(ctx context.Context, args []string, env *Environment) int {
	s, err := prepareBuild("watch", args, env)
	if err != nil {
		return reportSetupError(env, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: fsnotify: %v\n", err)
		return ExitGeneral
	}
	defer func() { _ = w.Close() }()

	for _, dir := range s.watchedDirs() {
		s.addDirsRecursive(w, dir)
	}

	s.build(ctx)
	if ctx.Err() != nil {
		return ExitPartial
	}
	fmt.Fprintln(env.Stdout, "Watching for changes. Press Ctrl+C to stop.")

	return s.watchLoop(ctx, w, watchDebounce)
}

// watchedDirs returns the existing source directories of the site.
func (s *buildSession) watchedDirs() []string {
	var dirs []string
	for _, dir := range []string{s.cfg.Content, s.cfg.Templates, s.cfg.Assets} {
		if dir != "" && fileutil.DirExists(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// watchLoop dispatches filesystem events and runs debounced rebuilds.
// Rebuilds run on this goroutine, so they never overlap.
func (s *buildSession) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration) int {
	d := newDebouncer(debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.env.Stdout, "Stopped watching.")
			return ExitSuccess
		case ev, ok := <-w.Events:
			if !ok {
				return ExitSuccess
			}
			s.handleEvent(w, ev, d.trigger)
		case err, ok := <-w.Errors:
			if !ok {
				return ExitSuccess
			}
			s.logger.Warn("watcher error", logfields.Error(err))
		case <-d.C:
			s.logger.Info("change detected, rebuilding")
			s.build(ctx)
		}
	}
}

// handleEvent watches new directories and triggers a rebuild for
// relevant changes.
func (s *buildSession) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if s.shouldIgnoreEvent(ev) {
		return
	}
	if ev.Has(fsnotify.Create) && fileutil.DirExists(ev.Name) {
		s.addDirsRecursive(w, ev.Name)
	}
	s.logger.Debug("file change detected", logfields.Path(ev.Name), logfields.Status(ev.Op.String()))
	trigger()
}

// shouldIgnoreEvent returns true for events that cannot change the site:
// permission changes, hidden and editor temp files, and anything written
// into the output directory.
func (s *buildSession) shouldIgnoreEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}
	if out, err := filepath.Abs(s.cfg.Output); err == nil {
		if p, err := filepath.Abs(ev.Name); err == nil && (p == out || strings.HasPrefix(p, out+string(filepath.Separator))) {
			return true
		}
	}

	base := filepath.Base(ev.Name)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"))
}

func (s *buildSession) addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				s.logger.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// debouncer delivers one tick on C after trigger stops being called for
// the configured delay.
type debouncer struct {
	C chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{C: make(chan struct{}, 1), delay: delay}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.C <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
