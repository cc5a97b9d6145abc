package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "|", cfg.Seed.Delimiter)
	assert.Equal(t, 37, cfg.Seed.Modulus)
	assert.Equal(t, DefaultManifestPath, cfg.Manifest.Path)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.Manifest.MaxFileSize)
	assert.Equal(t, []string{"**"}, cfg.Manifest.Include)
	assert.Contains(t, cfg.Manifest.Exclude, "**/.git/**")
	assert.Equal(t, DefaultDebounceMs, cfg.Watch.DebounceMs)
	assert.NotEmpty(t, cfg.Root)
}

func TestLoad_NoFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)

	assert.Equal(t, 37, cfg.Seed.Modulus)
	assert.Equal(t, max(1, runtime.NumCPU()), cfg.Manifest.Workers, "workers auto-detected")
}

func TestLoad_ProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := writeConfig(t, dir, `
seed {
    delimiter ","
    modulus 100
}
manifest {
    path "integrity.toml"
    workers 3
    max_file_size "1MB"
    include "**/*.txt" "**/*.json"
}
watch {
    debounce_ms 50
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ",", cfg.Seed.Delimiter)
	assert.Equal(t, 100, cfg.Seed.Modulus)
	assert.Equal(t, "integrity.toml", cfg.Manifest.Path)
	assert.Equal(t, 3, cfg.Manifest.Workers)
	assert.Equal(t, int64(1024*1024), cfg.Manifest.MaxFileSize)
	assert.Equal(t, []string{"**/*.txt", "**/*.json"}, cfg.Manifest.Include)
	assert.Equal(t, 50, cfg.Watch.DebounceMs)

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, absDir, cfg.Root, "root defaults to the config file directory")
}

func TestLoad_RelativeRoot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := writeConfig(t, dir, `root "data"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Root)
}

func TestLoad_MergesGlobalExclusions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, `
manifest {
    exclude "**/*.bak"
    include "**/*.go"
}
`)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
manifest {
    exclude "**/*.tmp"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Contains(t, cfg.Manifest.Exclude, "**/*.bak", "global exclusion preserved")
	assert.Contains(t, cfg.Manifest.Exclude, "**/*.tmp", "project exclusion kept")
	// the project file did not set include, but parsing fills the default
	assert.Equal(t, []string{"**"}, cfg.Manifest.Include)
}

func TestLoad_GlobalOnly(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, `
seed {
    modulus 10
}
`)

	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Seed.Modulus)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name  string
		kdl   string
		field string
	}{
		{"zero modulus", "seed {\n modulus 0\n}", "seed.modulus"},
		{"empty delimiter", "seed {\n delimiter \"\"\n}", "seed.delimiter"},
		{"negative workers", "manifest {\n workers -1\n}", "manifest.workers"},
		{"bad glob", "manifest {\n include \"[abc\"\n}", "manifest.include"},
		{"negative debounce", "watch {\n debounce_ms -5\n}", "watch.debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.kdl)
			_, err := Load(path)
			require.Error(t, err)

			var cfgErr *fherrors.ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, t.TempDir(), `seed { modulus`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseKDL_UnknownKeys(t *testing.T) {
	cfg, err := parseKDL(`
seed {
    modulos 12
}
manifets {
}
watch {
    completely_unrelated_setting 1
}
`)
	require.NoError(t, err)
	require.Len(t, cfg.Warnings, 3)

	assert.Contains(t, cfg.Warnings[0], `"seed.modulos"`)
	assert.Contains(t, cfg.Warnings[0], `did you mean "modulus"`)
	assert.Contains(t, cfg.Warnings[1], `did you mean "manifest"`)
	assert.NotContains(t, cfg.Warnings[2], "did you mean")

	assert.Equal(t, 37, cfg.Seed.Modulus, "unknown key leaves default untouched")
}

func TestParseKDL_ExcludeBlock(t *testing.T) {
	cfg, err := parseKDL(`
manifest {
    exclude {
        "**/*.log"
        "**/tmp/**"
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"**/*.log", "**/tmp/**"}, cfg.Manifest.Exclude)
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"10":    10,
		"10B":   10,
		"2KB":   2048,
		"3mb":   3 * 1024 * 1024,
		"1GB":   1024 * 1024 * 1024,
		" 5MB ": 5 * 1024 * 1024,
	}
	for in, want := range tests {
		got, err := parseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseSize("lots")
	assert.Error(t, err)
}

func TestSuggestKey(t *testing.T) {
	known := []string{"delimiter", "modulus"}
	assert.Equal(t, "modulus", suggestKey("modulo", known))
	assert.Equal(t, "delimiter", suggestKey("delimeter", known))
	assert.Equal(t, "", suggestKey("xyz_completely_different", known))
	assert.Equal(t, "", suggestKey("anything", nil))
}

func TestDeduplicatePatterns(t *testing.T) {
	got := DeduplicatePatterns([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestConfig_ManifestFile(t *testing.T) {
	cfg := &Config{Root: filepath.Join("srv", "data"), Manifest: Manifest{Path: "sums.toml"}}
	assert.Equal(t, filepath.Join("srv", "data", "sums.toml"), cfg.ManifestFile())

	abs, err := filepath.Abs("sums.toml")
	require.NoError(t, err)
	cfg.Manifest.Path = abs
	assert.Equal(t, abs, cfg.ManifestFile())

	cfg = &Config{Manifest: Manifest{Path: "sums.toml"}}
	assert.Equal(t, "sums.toml", cfg.ManifestFile())
}
