package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
)

var knownKeys = map[string][]string{
	"":         {"root", "seed", "manifest", "watch"},
	"seed":     {"delimiter", "modulus"},
	"manifest": {"path", "workers", "max_file_size", "include", "exclude", "respect_gitignore"},
	"watch":    {"debounce_ms"},
}

// LoadKDL loads configuration from a KDL file. It returns nil, nil when the
// file does not exist.
func LoadKDL(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Relative roots resolve against the directory holding the config file
	configDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		configDir = filepath.Dir(path)
	}
	switch {
	case cfg.Root == "":
		cfg.Root = configDir
	case !filepath.IsAbs(cfg.Root):
		cfg.Root = filepath.Clean(filepath.Join(configDir, cfg.Root))
	default:
		cfg.Root = filepath.Clean(cfg.Root)
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()
	cfg.Root = ""

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch name := nodeName(n); name {
		case "root":
			s, ok := firstStringArg(n)
			if !ok {
				return nil, invalidValue("", name, "a string")
			}
			cfg.Root = s
		case "seed":
			for _, cn := range n.Children {
				switch key := nodeName(cn); key {
				case "delimiter":
					s, ok := firstStringArg(cn)
					if !ok {
						return nil, invalidValue(name, key, "a string")
					}
					cfg.Seed.Delimiter = s
				case "modulus":
					v, ok := firstIntArg(cn)
					if !ok {
						return nil, invalidValue(name, key, "an integer")
					}
					cfg.Seed.Modulus = v
				default:
					cfg.warnUnknown(name, key)
				}
			}
		case "manifest":
			for _, cn := range n.Children {
				switch key := nodeName(cn); key {
				case "path":
					s, ok := firstStringArg(cn)
					if !ok {
						return nil, invalidValue(name, key, "a string")
					}
					cfg.Manifest.Path = s
				case "workers":
					v, ok := firstIntArg(cn)
					if !ok {
						return nil, invalidValue(name, key, "an integer")
					}
					cfg.Manifest.Workers = v
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Manifest.MaxFileSize = int64(v)
					} else if s, ok := firstStringArg(cn); ok {
						sz, err := parseSize(s)
						if err != nil {
							return nil, fherrors.NewConfigError("manifest.max_file_size", s, err)
						}
						cfg.Manifest.MaxFileSize = sz
					} else {
						return nil, invalidValue(name, key, "an integer or size string")
					}
				case "include":
					if !allStringArgs(cn) {
						return nil, invalidValue(name, key, "string")
					}
					cfg.Manifest.Include = collectStringArgs(cn)
				case "exclude":
					if !allStringArgs(cn) {
						return nil, invalidValue(name, key, "string")
					}
					// An exclude block replaces the built-in exclusions
					cfg.Manifest.Exclude = collectStringArgs(cn)
				case "respect_gitignore":
					b, ok := firstBoolArg(cn)
					if !ok {
						return nil, invalidValue(name, key, "a boolean")
					}
					cfg.Manifest.RespectGitignore = b
				default:
					cfg.warnUnknown(name, key)
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch key := nodeName(cn); key {
				case "debounce_ms":
					v, ok := firstIntArg(cn)
					if !ok {
						return nil, invalidValue(name, key, "an integer")
					}
					cfg.Watch.DebounceMs = v
				default:
					cfg.warnUnknown(name, key)
				}
			}
		default:
			cfg.warnUnknown("", name)
		}
	}

	return cfg, nil
}

// invalidValue reports a known key whose argument is missing or has the wrong type
func invalidValue(section, key, want string) error {
	field := key
	if section != "" {
		field = section + "." + key
	}
	return fherrors.NewConfigError(field, "", fmt.Errorf("expected %s argument", want))
}

// warnUnknown records an unknown key, suggesting the closest known one
func (c *Config) warnUnknown(section, key string) {
	qualified := key
	if section != "" {
		qualified = section + "." + key
	}

	msg := fmt.Sprintf("unknown config key %q", qualified)
	if s := suggestKey(key, knownKeys[section]); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	c.Warnings = append(c.Warnings, msg)
}

// suggestKey returns the known key closest to key by edit distance, or ""
// when nothing is close enough to be a plausible typo.
func suggestKey(key string, known []string) string {
	best := ""
	bestDist := -1
	for _, k := range known {
		d := edlib.LevenshteinDistance(key, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(key)/3) {
		return ""
	}
	return best
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// allStringArgs reports whether every inline argument of n is a string
func allStringArgs(n *document.Node) bool {
	for _, a := range n.Arguments {
		if _, ok := a.Value.(string); !ok {
			return false
		}
	}
	return true
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block form: exclude { "pattern"; "other" }
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
