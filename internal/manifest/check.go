package manifest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/fuzzyhash/internal/debug"
	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

// Status is the outcome of verifying one entry
type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
	StatusMissing  Status = "missing"
	StatusError    Status = "error"
)

type CheckResult struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the entry verified
func (r CheckResult) OK() bool { return r.Status == StatusOK }

type Summary struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Mismatch int `json:"mismatch"`
	Missing  int `json:"missing"`
	Errors   int `json:"errors"`
}

// Failed reports whether any entry did not verify
func (s Summary) Failed() bool { return s.OK != s.Total }

// Summarize counts results by status
func Summarize(results []CheckResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusMismatch:
			s.Mismatch++
		case StatusMissing:
			s.Missing++
		default:
			s.Errors++
		}
	}
	return s
}

// Check re-verifies every entry of m against the files under root. Per-entry
// problems are reported in the results; the error is only set when ctx is
// cancelled.
func Check(ctx context.Context, root string, m *Manifest, workers int) ([]CheckResult, error) {
	results := make([]CheckResult, len(m.Entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(BuildOptions{Workers: workers}.WorkerCount())
	for i, e := range m.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = CheckFile(root, e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := Summarize(results)
	debug.LogManifest("checked %d entries: %d ok, %d mismatch, %d missing, %d errors\n",
		s.Total, s.OK, s.Mismatch, s.Missing, s.Errors)
	return results, nil
}

// CheckFile verifies a single entry
func CheckFile(root string, e Entry) CheckResult {
	full := filepath.Join(root, filepath.FromSlash(e.Path))
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{Path: e.Path, Expected: e.Digest, Status: StatusMissing}
	}
	if err != nil {
		return CheckResult{
			Path:     e.Path,
			Expected: e.Digest,
			Status:   StatusError,
			Error:    fherrors.NewFileError("read", full, err).Error(),
		}
	}
	return CheckData(e, data)
}

// CheckData verifies already-read file content against an entry
func CheckData(e Entry, data []byte) CheckResult {
	r := CheckResult{Path: e.Path, Expected: e.Digest}

	if len(data) == 0 {
		// Empty files have no digest; they verify only against an empty record
		if e.Digest == "" {
			r.Status = StatusOK
		} else {
			r.Status = StatusMismatch
		}
		return r
	}

	actual, err := fuzzyhash.Hex(data)
	if err != nil {
		r.Status = StatusError
		r.Error = fherrors.NewHashError("digest", e.Path, err).Error()
		return r
	}
	r.Actual = actual
	if r.Actual == e.Digest {
		r.Status = StatusOK
	} else {
		r.Status = StatusMismatch
	}
	return r
}
