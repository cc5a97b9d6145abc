// Package manifest records fuzzy digests for a tree of files and re-verifies
// them later. Manifests are stored as TOML.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
	"github.com/standardbeagle/fuzzyhash/internal/version"
	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

// FormatVersion is the manifest schema version written by this package
const FormatVersion = 1

// Entry is one recorded file. Path is slash-separated and relative to the
// manifest root. Empty files carry an empty digest.
type Entry struct {
	Path   string `toml:"path" json:"path"`
	Size   int64  `toml:"size" json:"size"`
	Digest string `toml:"digest" json:"digest"`
}

type Manifest struct {
	Version   int       `toml:"version"`
	Algorithm string    `toml:"algorithm"`
	Created   time.Time `toml:"created"`
	Root      string    `toml:"root,omitempty"`
	Entries   []Entry   `toml:"entry"`
}

// New returns an empty manifest stamped with the current time
func New(root string) *Manifest {
	return &Manifest{
		Version:   FormatVersion,
		Algorithm: version.Algorithm,
		Created:   time.Now().UTC().Truncate(time.Second),
		Root:      root,
	}
}

// Sort orders entries by path
func (m *Manifest) Sort() {
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
}

// Index returns the entries keyed by path
func (m *Manifest) Index() map[string]Entry {
	idx := make(map[string]Entry, len(m.Entries))
	for _, e := range m.Entries {
		idx[e.Path] = e
	}
	return idx
}

// Load reads and validates a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fherrors.NewFileError("read", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fherrors.NewManifestError(path, err)
	}

	if err := m.validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate(path string) error {
	if m.Algorithm != version.Algorithm {
		return fherrors.NewManifestError(path, fmt.Errorf("unsupported algorithm %q", m.Algorithm))
	}
	if m.Version > FormatVersion {
		return fherrors.NewManifestError(path, fmt.Errorf("unsupported manifest version %d", m.Version))
	}

	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if e.Path == "" || !filepath.IsLocal(filepath.FromSlash(e.Path)) {
			return fherrors.NewManifestError(path, errors.New("entry path must be relative and inside the root")).WithEntry(e.Path)
		}
		if seen[e.Path] {
			return fherrors.NewManifestError(path, errors.New("duplicate entry")).WithEntry(e.Path)
		}
		seen[e.Path] = true

		if e.Digest == "" {
			if e.Size != 0 {
				return fherrors.NewManifestError(path, errors.New("missing digest for non-empty file")).WithEntry(e.Path)
			}
			continue
		}
		if _, err := fuzzyhash.ParseDigest(e.Digest); err != nil {
			return fherrors.NewManifestError(path, err).WithEntry(e.Path)
		}
	}
	return nil
}

// Save writes the manifest atomically
func (m *Manifest) Save(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fherrors.NewManifestError(path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".fuzzyhash-manifest-*")
	if err != nil {
		return fherrors.NewFileError("create", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fherrors.NewFileError("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fherrors.NewFileError("write", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fherrors.NewFileError("chmod", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fherrors.NewFileError("rename", path, err)
	}
	return nil
}
