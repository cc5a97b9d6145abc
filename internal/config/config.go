package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

// FileName is the config file looked up in the home and project directories
const FileName = ".fuzzyhash.kdl"

// Defaults shared by code and KDL parsing
const (
	DefaultManifestPath = "fuzzyhash.toml"
	DefaultMaxFileSize  = 64 * 1024 * 1024
	DefaultDebounceMs   = 200
)

type Config struct {
	Version  int
	Root     string
	Seed     Seed
	Manifest Manifest
	Watch    Watch

	// Warnings collects non-fatal problems found while parsing, such as unknown keys
	Warnings []string
}

// Seed controls how seed parts are turned into bounded outcomes
type Seed struct {
	Delimiter string
	Modulus   int
}

type Manifest struct {
	Path        string
	Workers     int   // 0 = auto-detect (NumCPU)
	MaxFileSize int64 // files above this size are skipped when building
	Include     []string
	Exclude     []string

	RespectGitignore bool // add the root .gitignore rules to Exclude when building
}

type Watch struct {
	DebounceMs int
}

// Default returns the built-in configuration rooted at the working directory
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return &Config{
		Version: 1,
		Root:    cwd,
		Seed: Seed{
			Delimiter: fuzzyhash.Delimiter,
			Modulus:   fuzzyhash.RouletteSlots,
		},
		Manifest: Manifest{
			Path:        DefaultManifestPath,
			Workers:     0,
			MaxFileSize: DefaultMaxFileSize,
			Include:     []string{"**"},
			Exclude:     defaultExclusions(),

			RespectGitignore: true,
		},
		Watch: Watch{
			DebounceMs: DefaultDebounceMs,
		},
	}
}

func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.hg/**",
		"**/.svn/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/__pycache__/**",
		"**/*.swp",
		"**/*~",
		"**/" + DefaultManifestPath,
		"**/" + FileName,
	}
}

// Load reads the global config from the home directory and the project config
// at path (FileName in the working directory when path is empty), merges them
// and validates the result. Missing files are not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(homeDir, FileName)
		if !samePath(globalPath, path) {
			// A broken global config must not block project work
			if globalCfg, err := LoadKDL(globalPath); err == nil && globalCfg != nil {
				baseConfig = globalCfg
			}
		}
	}

	projectConfig, err := LoadKDL(path)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		cfg = baseConfig
		cfg.Root = Default().Root
	default:
		cfg = Default()
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Manifest.Exclude) > 0 {
		merged.Manifest.Exclude = DeduplicatePatterns(append(
			append([]string{}, base.Manifest.Exclude...),
			project.Manifest.Exclude...,
		))
	}

	if len(project.Manifest.Include) == 0 && len(base.Manifest.Include) > 0 {
		merged.Manifest.Include = base.Manifest.Include
	}

	merged.Warnings = append(append([]string{}, base.Warnings...), project.Warnings...)
	return &merged
}

// DeduplicatePatterns removes repeated patterns, keeping first occurrences in order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// ManifestFile returns the manifest path, resolved against Root when relative
func (c *Config) ManifestFile() string {
	if filepath.IsAbs(c.Manifest.Path) || c.Root == "" {
		return c.Manifest.Path
	}
	return filepath.Join(c.Root, c.Manifest.Path)
}
