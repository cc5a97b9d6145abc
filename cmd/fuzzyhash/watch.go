package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzyhash/internal/manifest"
	"github.com/standardbeagle/fuzzyhash/internal/watch"
)

func watchCommand(c *cli.Context) error {
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

	w, err := watch.New(root, m, cfg.Watch)
	if err != nil {
		return usageError(err)
	}
	defer w.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(c.App.ErrWriter, "Watching %d entries in %d directories under %s (Ctrl-C to stop)\n",
		len(m.Entries), len(w.WatchedDirs()), root)

	return w.Run(ctx, func(r manifest.CheckResult) {
		printResult(c, r)
	})
}
