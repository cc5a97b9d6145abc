package config

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser reads the root .gitignore of a tree and turns its rules
// into doublestar exclusion patterns for manifest builds.
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool // trailing slash: only directories match
	Anchored  bool // leading or inner slash: relative to the root
}

func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads patterns from rootPath/.gitignore. A missing file is not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	return gp.Parse(file)
}

// Parse adds every rule in r
func (gp *GitignoreParser) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern adds a single .gitignore line; blanks and comments are ignored
func (gp *GitignoreParser) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	var p GitignorePattern
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Anchored = true
		line = line[1:]
	}
	if strings.Contains(line, "/") {
		p.Anchored = true
	}
	if line == "" {
		return
	}
	p.Pattern = line
	gp.patterns = append(gp.patterns, p)
}

func (gp *GitignoreParser) Patterns() []GitignorePattern {
	return gp.patterns
}

// ExclusionPatterns converts the loaded rules into doublestar patterns.
// Negated rules are not supported and are dropped, as are rules doublestar
// cannot parse.
func (gp *GitignoreParser) ExclusionPatterns() []string {
	var out []string
	for _, p := range gp.patterns {
		if p.Negate {
			continue
		}
		for _, glob := range p.globs() {
			if doublestar.ValidatePattern(glob) {
				out = append(out, glob)
			}
		}
	}
	return DeduplicatePatterns(out)
}

func (p GitignorePattern) globs() []string {
	base := p.Pattern
	if !p.Anchored && !strings.HasPrefix(base, "**/") {
		base = "**/" + base
	}
	if p.Directory {
		return []string{base + "/**"}
	}
	// A plain name matches a file, or a directory and everything below it
	return []string{base, base + "/**"}
}

// GitignoreExclusions returns the exclusion patterns from root/.gitignore
func GitignoreExclusions(root string) ([]string, error) {
	gp := NewGitignoreParser()
	if err := gp.LoadGitignore(root); err != nil {
		return nil, err
	}
	return gp.ExclusionPatterns(), nil
}
