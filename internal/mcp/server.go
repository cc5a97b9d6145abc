package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/fuzzyhash/internal/config"
	"github.com/standardbeagle/fuzzyhash/internal/debug"
	"github.com/standardbeagle/fuzzyhash/internal/version"
)

// ServerName is the implementation name reported to MCP clients
const ServerName = "fuzzyhash-mcp-server"

// Server exposes the hash engine and manifest checks as MCP tools.
// Handlers only read cfg, so a single Server serves any number of sessions.
type Server struct {
	cfg    *config.Config
	server *mcp.Server
	tools  []string
}

// NewServer creates the MCP server and registers every tool.
// A nil cfg falls back to config.Default().
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{cfg: cfg}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, nil)

	s.registerTools()
	debug.LogMCP("Registered %d tools: %v\n", len(s.tools), s.tools)

	return s, nil
}

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.server.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "fuzzy_hash",
		Description: "Hash text with the fuzzy hash. Returns the 32-bit value and its digest string (fuzzy_ followed by 8 lowercase hex digits). Not cryptographic.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"data": {Type: "string", Description: "Text to hash (UTF-8, must not be empty)"},
			},
			Required: []string{"data"},
		},
	}, s.handleHash)

	s.addTool(&mcp.Tool{
		Name:        "fuzzy_verify",
		Description: "Check whether text hashes to the given digest.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"data":   {Type: "string", Description: "Text to verify"},
				"digest": {Type: "string", Description: "Expected digest, e.g. fuzzy_3ecbf53b"},
			},
			Required: []string{"data", "digest"},
		},
	}, s.handleVerify)

	s.addTool(&mcp.Tool{
		Name:        "fuzzy_range",
		Description: "Join seed parts with the delimiter, hash them and reduce the hash into [0, modulus).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"parts": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Seed parts in order, e.g. [\"session\", \"3\", \"red\", \"25\"]",
				},
				"modulus":   {Type: "integer", Description: "Upper bound (exclusive). Defaults to the configured seed modulus"},
				"delimiter": {Type: "string", Description: "Part separator. Defaults to the configured seed delimiter"},
			},
			Required: []string{"parts"},
		},
	}, s.handleRange)

	s.addTool(&mcp.Tool{
		Name:        "roulette_spin",
		Description: "Derive a roulette number 0..36 from seed|timestamp|bet.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"seed":      {Type: "string", Description: "Server seed"},
				"timestamp": {Type: "integer", Description: "Unix timestamp in seconds"},
				"bet":       {Type: "integer", Description: "Bet amount"},
			},
			Required: []string{"seed", "timestamp", "bet"},
		},
	}, s.handleSpin)

	s.addTool(&mcp.Tool{
		Name:        "manifest_check",
		Description: "Re-hash every file listed in a manifest and report entries that no longer match.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"manifest": {Type: "string", Description: "Path to the manifest TOML file. Defaults to the configured manifest path"},
				"root":     {Type: "string", Description: "Directory the manifest paths are relative to. Defaults to the manifest's directory"},
			},
		},
	}, s.handleManifestCheck)

	s.addTool(&mcp.Tool{
		Name:        "info",
		Description: "Server version, hash algorithm and available tools.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleInfo)
}

// Tools returns the registered tool names in registration order
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Connect serves a single session over t. Used with in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// Start runs the server over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	debug.LogMCP("Starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
