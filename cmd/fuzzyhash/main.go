package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzyhash/internal/config"
	"github.com/standardbeagle/fuzzyhash/internal/debug"
	"github.com/standardbeagle/fuzzyhash/internal/version"
)

// Exit codes
const (
	exitOK           = 0
	exitVerifyFailed = 1
	exitUsage        = 2
)

// loadConfig loads the config named by --config and reports parse warnings on stderr
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to load config from %s: %v", configPath, err), exitUsage)
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %s\n", w)
	}
	debug.LogCLI("config loaded: root=%s manifest=%s\n", cfg.Root, cfg.ManifestFile())
	return cfg, nil
}

func init() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "%s\nbuild id: %s\n", version.FullInfo(), version.BuildID())
	}
}

// usageError wraps an input problem so the process exits with exitUsage
func usageError(err error) error {
	return cli.Exit(err.Error(), exitUsage)
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "fuzzyhash",
		Usage:                  "Fast non-cryptographic fuzzy hash for digests, bounded outcomes and file manifests",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.FileName,
			},
			// -v belongs to --version
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print debug output to stderr",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a file in the temp directory",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "hash",
				Usage:     "Print the digest of each TEXT argument, file or stdin",
				ArgsUsage: "[TEXT]...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the decimal 32-bit value instead of the digest",
					},
					&cli.StringSliceFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Hash the contents of a file ('-' for stdin)",
					},
				},
				Action: hashCommand,
			},
			{
				Name:      "verify",
				Usage:     "Check TEXT, a file or stdin against DIGEST",
				ArgsUsage: "DIGEST [TEXT]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Verify the contents of a file ('-' for stdin)",
					},
				},
				Action: verifyCommand,
			},
			{
				Name:      "range",
				Usage:     "Hash the joined seed parts into [0, modulus)",
				ArgsUsage: "PART...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "modulus",
						Aliases: []string{"m"},
						Usage:   "Upper bound, exclusive (default from config)",
					},
					&cli.StringFlag{
						Name:  "sep",
						Usage: "Part separator (default from config)",
					},
				},
				Action: rangeCommand,
			},
			{
				Name:  "spin",
				Usage: "Derive a roulette number 0..36 from seed, timestamp and bet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "seed", Usage: "Server seed", Required: true},
					&cli.Int64Flag{Name: "timestamp", Usage: "Unix seconds (default: now)"},
					&cli.IntFlag{Name: "bet", Usage: "Bet amount", Required: true},
				},
				Action: spinCommand,
			},
			{
				Name:  "action",
				Usage: "Print the digest tagging a player action",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "Player input", Required: true},
					&cli.IntFlag{Name: "bet", Usage: "Bet amount", Required: true},
					&cli.StringFlag{Name: "session", Usage: "Session identifier", Required: true},
				},
				Action: actionCommand,
			},
			{
				Name:  "manifest",
				Usage: "Build and check file digest manifests",
				Subcommands: []*cli.Command{
					{
						Name:      "build",
						Usage:     "Hash the files under ROOT and write a manifest",
						ArgsUsage: "[ROOT]",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "out",
								Aliases: []string{"o"},
								Usage:   "Manifest output path (default: <root>/" + config.DefaultManifestPath + ")",
							},
							&cli.StringSliceFlag{
								Name:  "include",
								Usage: "Include files matching glob patterns (replaces config includes)",
							},
							&cli.StringSliceFlag{
								Name:  "exclude",
								Usage: "Exclude files matching glob patterns (added to config excludes)",
							},
							&cli.BoolFlag{
								Name:  "no-gitignore",
								Usage: "Do not add the root .gitignore rules to the exclusions",
							},
						},
						Action: manifestBuildCommand,
					},
					{
						Name:      "check",
						Usage:     "Re-hash the files of a manifest and report changes",
						ArgsUsage: "[ROOT]",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "manifest",
								Aliases: []string{"m"},
								Usage:   "Manifest path",
							},
							&cli.BoolFlag{
								Name:    "quiet",
								Aliases: []string{"q"},
								Usage:   "Only print entries that failed",
							},
						},
						Action: manifestCheckCommand,
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Watch the files of a manifest and report changes until interrupted",
				ArgsUsage: "[ROOT]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "manifest",
						Aliases: []string{"m"},
						Usage:   "Manifest path",
					},
				},
				Action: watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP tool server on stdio",
				Action: mcpCommand,
			},
			{
				Name:  "config",
				Usage: "Inspect configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration as KDL",
						Action: configShowCommand,
					},
					{
						Name:   "validate",
						Usage:  "Load and validate the configuration",
						Action: configValidateCommand,
					},
				},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.SetVerbose(true)
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			if c.Bool("debug-log") {
				logPath, err := debug.InitDebugLogFile()
				if err != nil {
					return usageError(err)
				}
				debug.SetVerbose(true)
				fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", logPath)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		// main decides the exit code
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// exitCode maps a command error onto the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return exitUsage
}

func main() {
	app := newApp()
	err := app.Run(os.Args)
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
	}
	os.Exit(exitCode(err))
}
