package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzyhash/internal/config"
)

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, configToKDL(cfg))
	return nil
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		fmt.Fprintf(c.App.Writer, "Configuration validation failed\n")
		return err
	}
	if len(cfg.Warnings) > 0 {
		fmt.Fprintf(c.App.Writer, "Configuration is valid with %d warning(s)\n", len(cfg.Warnings))
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Configuration is valid\n")
	return nil
}

func quoteAll(patterns []string) string {
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = strconv.Quote(p)
	}
	return strings.Join(quoted, " ")
}

// configToKDL renders cfg in the same layout the loader reads
func configToKDL(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Effective fuzzyhash configuration\n\n")
	fmt.Fprintf(&b, "root %s\n\n", strconv.Quote(cfg.Root))
	fmt.Fprintf(&b, "seed {\n    delimiter %s\n    modulus %d\n}\n\n", strconv.Quote(cfg.Seed.Delimiter), cfg.Seed.Modulus)
	fmt.Fprintf(&b, "manifest {\n")
	fmt.Fprintf(&b, "    path %s\n", strconv.Quote(cfg.Manifest.Path))
	fmt.Fprintf(&b, "    workers %d\n", cfg.Manifest.Workers)
	fmt.Fprintf(&b, "    max_file_size \"%dB\"\n", cfg.Manifest.MaxFileSize)
	if len(cfg.Manifest.Include) > 0 {
		fmt.Fprintf(&b, "    include %s\n", quoteAll(cfg.Manifest.Include))
	}
	if len(cfg.Manifest.Exclude) > 0 {
		fmt.Fprintf(&b, "    exclude %s\n", quoteAll(cfg.Manifest.Exclude))
	}
	fmt.Fprintf(&b, "    respect_gitignore %t\n", cfg.Manifest.RespectGitignore)
	fmt.Fprintf(&b, "}\n\n")
	fmt.Fprintf(&b, "watch {\n    debounce_ms %d\n}\n", cfg.Watch.DebounceMs)
	return b.String()
}
