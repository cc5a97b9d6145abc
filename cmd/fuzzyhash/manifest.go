package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzyhash/internal/config"
	"github.com/standardbeagle/fuzzyhash/internal/debug"
	"github.com/standardbeagle/fuzzyhash/internal/manifest"
)

// resolveRoot returns the ROOT argument, or the config root, as an absolute path
func resolveRoot(c *cli.Context, cfg *config.Config) (string, error) {
	root := cfg.Root
	if c.NArg() > 0 {
		root = c.Args().First()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}
	return abs, nil
}

// resolveManifest works out which manifest to read and which directory its
// paths are relative to. An explicit --manifest without ROOT uses the
// manifest's own directory as root.
func resolveManifest(c *cli.Context, cfg *config.Config) (path, root string, err error) {
	path = c.String("manifest")
	switch {
	case path != "" && c.NArg() == 0:
		root = filepath.Dir(path)
	case path != "":
		root = c.Args().First()
	default:
		if root, err = resolveRoot(c, cfg); err != nil {
			return "", "", err
		}
		path = cfg.Manifest.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
	}
	return path, root, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func manifestBuildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root, err := resolveRoot(c, cfg)
	if err != nil {
		return usageError(err)
	}

	if c.IsSet("no-gitignore") {
		cfg.Manifest.RespectGitignore = !c.Bool("no-gitignore")
	}
	opts, err := manifest.OptionsForRoot(cfg.Manifest, root)
	if err != nil {
		return usageError(err)
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		opts.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		opts.Exclude = config.DeduplicatePatterns(append(append([]string{}, opts.Exclude...), excludes...))
	}

	out := c.String("out")
	if out == "" {
		out = cfg.Manifest.Path
		if !filepath.IsAbs(out) {
			out = filepath.Join(root, out)
		}
	}
	if out, err = filepath.Abs(out); err != nil {
		return usageError(err)
	}
	// The manifest must not record itself
	if rel, err := filepath.Rel(root, out); err == nil && filepath.IsLocal(rel) {
		opts.Skip = append(opts.Skip, filepath.ToSlash(rel))
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, err := manifest.Build(ctx, root, opts)
	if err != nil {
		return usageError(err)
	}
	if err := m.Save(out); err != nil {
		return usageError(err)
	}

	debug.LogCLI("manifest built from %s with %d workers\n", root, opts.WorkerCount())
	fmt.Fprintf(c.App.Writer, "Wrote %d entries to %s\n", len(m.Entries), out)
	return nil
}

func printResult(c *cli.Context, r manifest.CheckResult) {
	if r.Error != "" {
		fmt.Fprintf(c.App.Writer, "%-8s  %s  (%s)\n", r.Status, r.Path, r.Error)
		return
	}
	fmt.Fprintf(c.App.Writer, "%-8s  %s\n", r.Status, r.Path)
}

func manifestCheckCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path, root, err := resolveManifest(c, cfg)
	if err != nil {
		return usageError(err)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return usageError(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := manifest.Check(ctx, root, m, cfg.Manifest.Workers)
	if err != nil {
		return usageError(err)
	}

	quiet := c.Bool("quiet")
	for _, r := range results {
		if quiet && r.OK() {
			continue
		}
		printResult(c, r)
	}

	s := manifest.Summarize(results)
	fmt.Fprintf(c.App.Writer, "%d entries: %d ok, %d mismatch, %d missing, %d errors\n",
		s.Total, s.OK, s.Mismatch, s.Missing, s.Errors)
	if s.Failed() {
		return cli.Exit("", exitVerifyFailed)
	}
	return nil
}
