// Package watch re-verifies manifest entries as their files change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/fuzzyhash/internal/config"
	"github.com/standardbeagle/fuzzyhash/internal/debug"
	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
	"github.com/standardbeagle/fuzzyhash/internal/manifest"
)

// Watcher monitors the directories holding manifest entries. Content is
// fingerprinted with xxhash so that events which leave a file unchanged
// (touch, chmod, rewrite with identical bytes) do not trigger re-verification.
type Watcher struct {
	root     string
	entries  map[string]manifest.Entry
	debounce time.Duration
	fsw      *fsnotify.Watcher

	// fingerprints is owned by the Run goroutine after New returns
	fingerprints map[string]uint64

	closeOnce sync.Once
}

// New creates a watcher for every directory that contains a manifest entry
func New(root string, m *manifest.Manifest, cfg config.Watch) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fherrors.NewFileError("resolve", root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:         absRoot,
		entries:      m.Index(),
		debounce:     time.Duration(cfg.DebounceMs) * time.Millisecond,
		fsw:          fsw,
		fingerprints: make(map[string]uint64, len(m.Entries)),
	}

	dirs := make(map[string]bool)
	for rel := range w.entries {
		full := w.fullPath(rel)
		dirs[filepath.Dir(full)] = true
		if data, err := os.ReadFile(full); err == nil {
			w.fingerprints[rel] = xxhash.Sum64(data)
		}
	}

	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	for _, d := range sorted {
		if err := fsw.Add(d); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				debug.LogWatch("directory %s does not exist, not watching\n", d)
				continue
			}
			fsw.Close()
			return nil, fherrors.NewFileError("watch", d, err)
		}
		debug.LogWatch("watching %s\n", d)
	}

	return w, nil
}

// WatchedDirs returns the directories currently registered with fsnotify
func (w *Watcher) WatchedDirs() []string {
	return w.fsw.WatchList()
}

// Run processes file events until ctx is done or the watcher is closed,
// calling onResult for every entry whose content changed. onResult is called
// from the Run goroutine only. Cancellation is a clean stop and returns nil.
func (w *Watcher) Run(ctx context.Context, onResult func(manifest.CheckResult)) error {
	done := make(chan struct{})
	fire := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		close(done)
		for _, t := range timers {
			t.Stop()
		}
	}()

	schedule := func(rel string) {
		if t, ok := timers[rel]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[rel] = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- rel:
			case <-done:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			rel, ok := w.relPath(ev.Name)
			if !ok {
				continue
			}
			debug.LogWatch("%s %s\n", ev.Op, rel)
			schedule(rel)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			debug.LogWatch("watcher error: %v\n", err)

		case rel := <-fire:
			if r, changed := w.verify(rel); changed {
				onResult(r)
			}
		}
	}
}

// verify re-checks one entry, reporting false when its content is unchanged
// since the last check
func (w *Watcher) verify(rel string) (manifest.CheckResult, bool) {
	e := w.entries[rel]
	full := w.fullPath(rel)

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		if _, seen := w.fingerprints[rel]; !seen {
			return manifest.CheckResult{}, false
		}
		delete(w.fingerprints, rel)
		return manifest.CheckResult{Path: rel, Expected: e.Digest, Status: manifest.StatusMissing}, true
	}
	if err != nil {
		return manifest.CheckResult{
			Path:     rel,
			Expected: e.Digest,
			Status:   manifest.StatusError,
			Error:    fherrors.NewFileError("read", full, err).Error(),
		}, true
	}

	fp := xxhash.Sum64(data)
	if prev, seen := w.fingerprints[rel]; seen && prev == fp {
		debug.LogWatch("%s unchanged\n", rel)
		return manifest.CheckResult{}, false
	}
	w.fingerprints[rel] = fp

	return manifest.CheckData(e, data), true
}

func (w *Watcher) fullPath(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func (w *Watcher) relPath(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	_, tracked := w.entries[rel]
	return rel, tracked
}

// Close releases the underlying fsnotify watcher
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsw.Close()
	})
	return err
}
