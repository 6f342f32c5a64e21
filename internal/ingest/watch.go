package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/santapalabra/scripture/core/errors"
)

// DefaultDebounce is how long a file must stay quiet before it is
// re-ingested.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-ingests corpus files when they change.
type Watcher struct {
	pipeline *Pipeline
	debounce time.Duration
	onReport func(*Report, error)
	ready    chan struct{}
}

// NewWatcher returns a watcher feeding p. onReport, if set, receives every
// re-ingestion result.
func NewWatcher(p *Pipeline, debounce time.Duration, onReport func(*Report, error)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		pipeline: p,
		debounce: debounce,
		onReport: onReport,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once every path is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches paths until ctx ends. A directory covers every .txt and .xz
// file in it; a file is watched through its directory so editors that
// replace files on save are still seen. A missing schema stops the watcher
// with an error.
func (w *Watcher) Run(ctx context.Context, paths ...string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer fw.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.NewIO("resolve", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return errors.NewIO("stat", p, err)
		}
		dir := abs
		if !info.IsDir() {
			files[abs] = true
			dir = filepath.Dir(abs)
		} else {
			dirs[abs] = true
		}
		if err := fw.Add(dir); err != nil {
			return errors.NewIO("watch", dir, err)
		}
	}
	close(w.ready)

	accept := func(name string) bool {
		if files[name] {
			return true
		}
		ext := strings.ToLower(filepath.Ext(name))
		return dirs[filepath.Dir(name)] && (ext == ".txt" || ext == ".xz")
	}

	log := w.pipeline.logger
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !accept(ev.Name) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)

		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)

			for _, name := range names {
				if _, err := os.Stat(name); err != nil {
					continue
				}
				log.Info("re-ingesting changed file", "path", name)
				report, err := w.pipeline.Run(ctx, FileSource{Path: name})
				if w.onReport != nil {
					w.onReport(report, err)
				}
				if errors.Is(err, errors.ErrSchemaMissing) {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		}
	}
}
