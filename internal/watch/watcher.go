// Package watch reloads risk trees when their definition files change on
// disk: edits invalidate the cached runs of the affected tree and
// re-resolve it, deletions just invalidate.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lossrange/lossrange/internal/results"
	"github.com/lossrange/lossrange/internal/treefile"
)

const defaultDebounce = 500 * time.Millisecond

// relevantOps are the event kinds that change a tree definition. Chmod is
// noise.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher follows the trees directory and keeps the results cache in sync
// with the files. Events are debounced per tree so editors that write in
// several bursts trigger one reload.
type Watcher struct {
	log      zerolog.Logger
	treesDir string
	resolver *results.Resolver
	fsw      *fsnotify.Watcher
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher over the trees directory. A zero debounce selects
// the default window.
func New(treesDir string, resolver *results.Resolver, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(treesDir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", treesDir, err)
	}

	return &Watcher{
		log:      log.With().Str("component", "watch").Logger(),
		treesDir: treesDir,
		resolver: resolver,
		fsw:      fsw,
		debounce: debounce,
		done:     make(chan struct{}),
	}, nil
}

// Start begins processing file events in the background.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	w.log.Info().Str("dir", w.treesDir).Msg("Watching tree definitions")
}

// Stop shuts the watcher down and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
	w.wg.Wait()
	w.log.Info().Msg("Tree watcher stopped")
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]string)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 || !isTreeFile(event.Name) {
				continue
			}
			pending[treefile.TreeName(event.Name)] = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("File watcher error")

		case <-timerC:
			timer = nil
			timerC = nil
			for name, path := range pending {
				w.reload(name, path)
			}
			pending = make(map[string]string)
		}
	}
}

// reload invalidates the tree's cached runs and, when the file still
// exists and parses, resolves it again so the cache stays warm.
func (w *Watcher) reload(name, path string) {
	ctx := context.Background()

	if _, err := w.resolver.Invalidate(ctx, name); err != nil {
		w.log.Warn().Err(err).Str("tree", name).Msg("Failed to invalidate cached runs")
	}

	nodes, err := treefile.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		w.log.Info().Str("tree", name).Msg("Tree definition removed, cache invalidated")
		return
	}
	if err != nil {
		w.log.Warn().Err(err).Str("tree", name).Msg("Failed to load updated tree definition")
		return
	}

	outcome, err := w.resolver.Resolve(ctx, name, nodes)
	if err != nil {
		w.log.Warn().Err(err).Str("tree", name).Msg("Failed to resolve updated tree")
		return
	}

	w.log.Info().
		Str("tree", name).
		Str("run_id", outcome.RunID).
		Msg("Reloaded tree definition")
}

func isTreeFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
