// Package watch re-runs a scan when source files under a root change.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/deadscan/internal/scanner"
	"github.com/panbanda/deadscan/pkg/config"
)

// DefaultDebounce is the quiet period after the last change before a rescan.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called with the changed paths once they have been quiet for the debounce period.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher monitors a source tree and batches changes into rescans.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	scanner   *scanner.Scanner
	root      string
	manifest  string
	ignored   map[string]bool
	debounce  time.Duration
	onChange  ChangeFunc
	out       io.Writer
	mu        sync.Mutex
	pending   map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOutput sets where status lines are written. Defaults to stdout.
func WithOutput(out io.Writer) Option {
	return func(w *Watcher) {
		w.out = out
	}
}

// WithIgnoredFile excludes a file from triggering rescans, such as the persisted report.
func WithIgnoredFile(path string) Option {
	return func(w *Watcher) {
		if abs, err := filepath.Abs(path); err == nil {
			w.ignored[abs] = true
		}
	}
}

// NewWatcher creates a watcher for root using the discovery rules of cfg.
func NewWatcher(root string, cfg *config.Config, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := scanner.CheckRoot(absRoot); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		scanner:   scanner.NewScanner(cfg),
		root:      absRoot,
		manifest:  cfg.ManifestPath(absRoot),
		ignored:   make(map[string]bool),
		debounce:  DefaultDebounce,
		onChange:  onChange,
		out:       os.Stdout,
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the directory tree and processes events until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	// A manifest configured outside the root needs its own directory watched.
	if dir := filepath.Dir(w.manifest); !isWithin(dir, w.root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	color.New(color.FgCyan).Fprintf(w.out, "Watching for changes in %s...\n", w.root)
	color.New(color.FgCyan).Fprintln(w.out, "Press Ctrl+C to stop")
	fmt.Fprintln(w.out)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped like in discovery.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.scanner.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// handleEvent records a relevant change or extends the watch to a new directory.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := event.Name
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.scanner.IsIgnoredDir(info.Name()) {
				_ = w.addTree(path)
			}
			return
		}
	}

	if !w.relevant(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// relevant reports whether a change to path can alter a scan result.
func (w *Watcher) relevant(path string) bool {
	if w.ignored[path] {
		return false
	}
	if path == w.manifest {
		return true
	}
	dir := filepath.Dir(path)
	if !isWithin(dir, w.root) {
		return false
	}
	if rel, err := filepath.Rel(w.root, dir); err == nil && rel != "." {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if w.scanner.IsIgnoredDir(part) {
				return false
			}
		}
	}
	return w.scanner.IsSourceFile(filepath.Base(path))
}

// processDebounced flushes pending changes until ctx is done.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending runs one callback for every change quiet for the debounce period.
// Callbacks run on the debounce goroutine, so rescans never overlap.
func (w *Watcher) processPending(ctx context.Context) {
	changed := w.takeReady(time.Now())
	if len(changed) == 0 || w.onChange == nil {
		return
	}

	for _, path := range changed {
		color.New(color.FgYellow).Fprintf(w.out, "File changed: %s\n", w.rel(path))
	}
	w.onChange(ctx, changed)
	fmt.Fprintln(w.out)
}

// takeReady removes and returns the pending paths older than the debounce period, sorted.
func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	sort.Strings(ready)
	return ready
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (w *Watcher) rel(path string) string {
	relPath, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(relPath)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
