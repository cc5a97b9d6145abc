package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/fuzzyhash/internal/debug"
	"github.com/standardbeagle/fuzzyhash/internal/manifest"
	"github.com/standardbeagle/fuzzyhash/internal/version"
	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

type HashParams struct {
	Data string `json:"data"`
}

type HashResult struct {
	Hash   uint32 `json:"hash"`
	Digest string `json:"digest"`
}

type VerifyParams struct {
	Data   string `json:"data"`
	Digest string `json:"digest"`
}

type RangeParams struct {
	Parts     []string `json:"parts"`
	Modulus   *int     `json:"modulus,omitempty"`
	Delimiter *string  `json:"delimiter,omitempty"`
}

type SpinParams struct {
	Seed      string `json:"seed"`
	Timestamp int64  `json:"timestamp"`
	Bet       int    `json:"bet"`
}

type ManifestCheckParams struct {
	Manifest string `json:"manifest,omitempty"`
	Root     string `json:"root,omitempty"`
}

// ManifestCheckResult lists only the entries that failed; OK entries are counted in Summary
type ManifestCheckResult struct {
	Manifest string                 `json:"manifest"`
	Root     string                 `json:"root"`
	Summary  manifest.Summary       `json:"summary"`
	Failures []manifest.CheckResult `json:"failures,omitempty"`
}

func (s *Server) handleHash(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p HashParams
	if err := decodeParams(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("fuzzy_hash", err)
	}

	h, err := fuzzyhash.Sum32String(p.Data)
	if err != nil {
		return createErrorResponse("fuzzy_hash", err)
	}
	return createJSONResponse(HashResult{Hash: h, Digest: fuzzyhash.Format(h)})
}

func (s *Server) handleVerify(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p VerifyParams
	if err := decodeParams(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("fuzzy_verify", err)
	}
	if p.Digest == "" {
		return createErrorResponse("fuzzy_verify", fmt.Errorf("digest is required"))
	}

	return createJSONResponse(map[string]interface{}{
		"valid": fuzzyhash.VerifyString(p.Data, p.Digest),
	})
}

func (s *Server) handleRange(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p RangeParams
	if err := decodeParams(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("fuzzy_range", err)
	}

	modulus := s.cfg.Seed.Modulus
	if p.Modulus != nil {
		modulus = *p.Modulus
	}
	sep := s.cfg.Seed.Delimiter
	if p.Delimiter != nil {
		sep = *p.Delimiter
	}

	value, err := fuzzyhash.HashToRangeSep(sep, p.Parts, modulus)
	if err != nil {
		return createErrorResponse("fuzzy_range", err)
	}
	return createJSONResponse(map[string]interface{}{
		"value":   value,
		"modulus": modulus,
		"seed":    fuzzyhash.JoinSeed(sep, p.Parts...),
	})
}

func (s *Server) handleSpin(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p SpinParams
	if err := decodeParams(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("roulette_spin", err)
	}

	n, err := fuzzyhash.SpinResult(p.Seed, p.Timestamp, p.Bet)
	if err != nil {
		return createErrorResponse("roulette_spin", err)
	}
	return createJSONResponse(map[string]interface{}{"number": n})
}

func (s *Server) handleManifestCheck(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p ManifestCheckParams
	if err := decodeParams(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("manifest_check", err)
	}

	path := p.Manifest
	if path == "" {
		path = s.cfg.ManifestFile()
	}
	root := p.Root
	if root == "" {
		root = filepath.Dir(path)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return createErrorResponse("manifest_check", err)
	}

	results, err := manifest.Check(ctx, root, m, s.cfg.Manifest.Workers)
	if err != nil {
		return createErrorResponse("manifest_check", err)
	}

	out := ManifestCheckResult{
		Manifest: path,
		Root:     root,
		Summary:  manifest.Summarize(results),
	}
	for _, r := range results {
		if !r.OK() {
			out.Failures = append(out.Failures, r)
		}
	}
	debug.LogMCP("manifest_check %s: %d/%d ok\n", path, out.Summary.OK, out.Summary.Total)

	return createJSONResponse(out)
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createJSONResponse(map[string]interface{}{
		"server":    ServerName,
		"version":   version.Info(),
		"build":     version.FullInfo(),
		"build_id":  version.BuildID(),
		"algorithm": version.Algorithm,
		"digest":    fuzzyhash.DigestPrefix + "xxxxxxxx",
		"tools":     s.Tools(),
	})
}
