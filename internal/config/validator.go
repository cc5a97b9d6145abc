package config

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Every failing section is reported; each contributes its first problem.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	var errs []error
	if cfg.Root == "" {
		errs = append(errs, fherrors.NewConfigError("root", "", errors.New("root cannot be empty")))
	}

	errs = append(errs,
		v.validateSeedConfig(&cfg.Seed),
		v.validateManifestConfig(&cfg.Manifest),
	)

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, fherrors.NewConfigError("watch.debounce_ms", strconv.Itoa(cfg.Watch.DebounceMs),
			errors.New("debounce cannot be negative")))
	}

	if err := fherrors.NewMultiError(errs).ErrorOrNil(); err != nil {
		return err
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateSeedConfig(seed *Seed) error {
	if seed.Delimiter == "" {
		return fherrors.NewConfigError("seed.delimiter", "", errors.New("delimiter cannot be empty"))
	}

	if seed.Modulus <= 0 {
		return fherrors.NewConfigError("seed.modulus", strconv.Itoa(seed.Modulus),
			errors.New("modulus must be positive"))
	}

	return nil
}

func (v *Validator) validateManifestConfig(m *Manifest) error {
	if m.Path == "" {
		return fherrors.NewConfigError("manifest.path", "", errors.New("manifest path cannot be empty"))
	}

	// 0 means auto-detect
	if m.Workers < 0 {
		return fherrors.NewConfigError("manifest.workers", strconv.Itoa(m.Workers),
			errors.New("workers cannot be negative"))
	}

	if m.MaxFileSize <= 0 {
		return fherrors.NewConfigError("manifest.max_file_size", strconv.FormatInt(m.MaxFileSize, 10),
			errors.New("max file size must be positive"))
	}

	for _, p := range m.Include {
		if !doublestar.ValidatePattern(p) {
			return fherrors.NewConfigError("manifest.include", p, fmt.Errorf("invalid glob pattern"))
		}
	}
	for _, p := range m.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fherrors.NewConfigError("manifest.exclude", p, fmt.Errorf("invalid glob pattern"))
		}
	}

	return nil
}

// setSmartDefaults applies defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Manifest.Workers == 0 {
		cfg.Manifest.Workers = max(1, runtime.NumCPU())
	}

	if len(cfg.Manifest.Include) == 0 {
		cfg.Manifest.Include = []string{"**"}
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
