package manifest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/fuzzyhash/internal/config"
	"github.com/standardbeagle/fuzzyhash/internal/debug"
	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

// BuildOptions selects and bounds the files recorded by Build
type BuildOptions struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64 // 0 = no limit
	Workers     int   // 0 = NumCPU

	// Skip lists exact slash-separated paths that are never recorded,
	// such as the manifest being written
	Skip []string
}

// OptionsFromConfig maps the manifest section of the config onto BuildOptions
func OptionsFromConfig(cfg config.Manifest) BuildOptions {
	return BuildOptions{
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		MaxFileSize: cfg.MaxFileSize,
		Workers:     cfg.Workers,
	}
}

// OptionsForRoot is OptionsFromConfig plus the exclusions from root/.gitignore
// when RespectGitignore is set
func OptionsForRoot(cfg config.Manifest, root string) (BuildOptions, error) {
	opts := OptionsFromConfig(cfg)
	if !cfg.RespectGitignore {
		return opts, nil
	}
	ignored, err := config.GitignoreExclusions(root)
	if err != nil {
		return opts, fherrors.NewFileError("read", filepath.Join(root, ".gitignore"), err)
	}
	if len(ignored) > 0 {
		debug.LogManifest("adding %d exclusions from .gitignore\n", len(ignored))
		opts.Exclude = config.DeduplicatePatterns(append(append([]string{}, opts.Exclude...), ignored...))
	}
	return opts, nil
}

// Matches reports whether a slash-separated relative path is selected
func (o BuildOptions) Matches(rel string) bool {
	if slices.Contains(o.Skip, rel) {
		return false
	}
	included := len(o.Include) == 0
	for _, p := range o.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range o.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

// WorkerCount is the number of files hashed concurrently
func (o BuildOptions) WorkerCount() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return max(1, runtime.NumCPU())
}

// Build walks root and records a digest for every selected regular file.
// Files are hashed concurrently; the first failure cancels the rest.
func Build(ctx context.Context, root string, opts BuildOptions) (*Manifest, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fherrors.NewFileError("walk", path, err)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fherrors.NewFileError("walk", path, err)
		}
		rel = filepath.ToSlash(rel)
		if opts.Matches(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	debug.LogManifest("selected %d files under %s, hashing with %d workers\n", len(paths), root, opts.WorkerCount())

	entries := make([]Entry, len(paths))
	skipped := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.WorkerCount())
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := hashFile(root, rel, opts.MaxFileSize)
			if err != nil {
				var fe *fherrors.FileError
				if errors.As(err, &fe) && fe.Type == fherrors.ErrorTypeFileTooLarge {
					debug.LogManifest("skipping %s: %v\n", rel, err)
					skipped[i] = true
					return nil
				}
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := New(root)
	m.Entries = make([]Entry, 0, len(entries))
	for i, e := range entries {
		if !skipped[i] {
			m.Entries = append(m.Entries, e)
		}
	}
	m.Sort()
	return m, nil
}

func hashFile(root, rel string, maxSize int64) (Entry, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))

	if maxSize > 0 {
		info, err := os.Stat(full)
		if err != nil {
			return Entry{}, fherrors.NewFileError("stat", full, err)
		}
		if info.Size() > maxSize {
			return Entry{}, fherrors.NewFileTooLargeError(full, info.Size(), maxSize)
		}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Entry{}, fherrors.NewFileError("read", full, err)
	}

	e := Entry{Path: rel, Size: int64(len(data))}
	if len(data) == 0 {
		return e, nil
	}
	e.Digest, err = fuzzyhash.Hex(data)
	if err != nil {
		return Entry{}, fherrors.NewHashError("digest", rel, err)
	}
	return e, nil
}
