package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzyhash/internal/debug"
	"github.com/standardbeagle/fuzzyhash/internal/mcp"
)

func mcpCommand(c *cli.Context) error {
	// stdout carries the protocol; keep debug output off it
	debug.SetServerMode(true)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return debug.Fatal("MCP server error: %v\n", err)
	}
	return nil
}
