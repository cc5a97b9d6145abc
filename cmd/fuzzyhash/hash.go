package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzyhash/internal/debug"
	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

// input is one named byte source for hash and verify
type input struct {
	name string
	data []byte
}

// readSource reads a file, or the app's stdin for "-"
func readSource(c *cli.Context, name string) (input, error) {
	if name == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return input{}, fherrors.NewFileError("read", "stdin", err)
		}
		return input{name: "-", data: data}, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return input{}, fherrors.NewFileError("read", name, err)
	}
	return input{name: name, data: data}, nil
}

// collectInputs gathers text arguments then files; with neither it reads stdin
func collectInputs(c *cli.Context, texts, files []string) ([]input, error) {
	var inputs []input
	for _, t := range texts {
		if t == "-" {
			in, err := readSource(c, "-")
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
			continue
		}
		inputs = append(inputs, input{name: t, data: []byte(t)})
	}
	for _, f := range files {
		in, err := readSource(c, f)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		in, err := readSource(c, "-")
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func hashCommand(c *cli.Context) error {
	inputs, err := collectInputs(c, c.Args().Slice(), c.StringSlice("file"))
	if err != nil {
		return usageError(err)
	}

	for _, in := range inputs {
		h, err := fuzzyhash.Sum32(in.data)
		if err != nil {
			return usageError(fherrors.NewHashError("hash", in.name, err))
		}
		if c.Bool("raw") {
			fmt.Fprintf(c.App.Writer, "%d  %s\n", h, in.name)
		} else {
			fmt.Fprintf(c.App.Writer, "%s  %s\n", fuzzyhash.Format(h), in.name)
		}
	}
	return nil
}

func verifyCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return usageError(fmt.Errorf("verify requires a DIGEST argument"))
	}
	digest := c.Args().First()
	if _, err := fuzzyhash.ParseDigest(digest); err != nil {
		return usageError(err)
	}

	var texts, files []string
	if c.NArg() > 1 {
		texts = c.Args().Tail()[:1]
	}
	if f := c.String("file"); f != "" {
		files = []string{f}
	}
	if len(texts) > 0 && len(files) > 0 {
		return usageError(fmt.Errorf("give either TEXT or --file, not both"))
	}

	inputs, err := collectInputs(c, texts, files)
	if err != nil {
		return usageError(err)
	}
	in := inputs[0]
	if len(in.data) == 0 {
		return usageError(fherrors.NewHashError("verify", in.name, fuzzyhash.ErrInvalidInput))
	}

	if !fuzzyhash.Verify(in.data, digest) {
		fmt.Fprintln(c.App.Writer, "FAILED")
		return cli.Exit("", exitVerifyFailed)
	}
	fmt.Fprintln(c.App.Writer, "OK")
	return nil
}

func rangeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	modulus := cfg.Seed.Modulus
	if c.IsSet("modulus") {
		modulus = c.Int("modulus")
	}
	sep := cfg.Seed.Delimiter
	if c.IsSet("sep") {
		sep = c.String("sep")
	}
	if c.NArg() == 0 {
		return usageError(fmt.Errorf("range requires at least one PART"))
	}

	parts := c.Args().Slice()
	v, err := fuzzyhash.HashToRangeSep(sep, parts, modulus)
	if err != nil {
		return usageError(err)
	}
	debug.LogCLI("range seed=%q modulus=%d -> %d\n", fuzzyhash.JoinSeed(sep, parts...), modulus, v)
	fmt.Fprintln(c.App.Writer, v)
	return nil
}

func spinCommand(c *cli.Context) error {
	ts := c.Int64("timestamp")
	if !c.IsSet("timestamp") {
		ts = time.Now().Unix()
	}

	n, err := fuzzyhash.SpinResult(c.String("seed"), ts, c.Int("bet"))
	if err != nil {
		return usageError(err)
	}
	debug.LogCLI("spin seed=%q timestamp=%d bet=%d -> %d\n", c.String("seed"), ts, c.Int("bet"), n)
	fmt.Fprintln(c.App.Writer, n)
	return nil
}

func actionCommand(c *cli.Context) error {
	d, err := fuzzyhash.PlayerActionDigest(c.String("input"), c.Int("bet"), c.String("session"))
	if err != nil {
		return usageError(err)
	}
	fmt.Fprintln(c.App.Writer, d)
	return nil
}
