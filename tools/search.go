package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxGrepMatches  = 200
	maxGlobMatches  = 500
	maxSearchedSize = 1 << 20 // skip files over 1 MiB
)

// skippedDirs are never descended into during searches.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"vendor":       true,
}

// GrepTool searches file contents for a regular expression.
type GrepTool struct {
	workspace string
}

// NewGrepTool creates a grep tool rooted at workspace.
func NewGrepTool(workspace string) *GrepTool {
	return &GrepTool{workspace: workspace}
}

func (t *GrepTool) Name() string { return "grep" }

func (t *GrepTool) Description() string {
	return "Search file contents for a regular expression. Returns matching lines as path:line:text."
}

func (t *GrepTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Regular expression to search for",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory to search (defaults to the workspace root)",
			},
			"include": map[string]interface{}{
				"type":        "string",
				"description": "Glob filter on file names, e.g. *.go",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *GrepTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	pattern, ok := stringArg(args, "pattern")
	if !ok || pattern == "" {
		return Fail("pattern is required"), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Fail("invalid pattern: %v", err), nil
	}

	root, _ := stringArg(args, "path")
	if root == "" {
		root = "."
	}
	include, _ := stringArg(args, "include")

	var matches []string
	walkErr := filepath.WalkDir(resolvePath(t.workspace, root), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if include != "" {
			if ok, _ := filepath.Match(include, d.Name()); !ok {
				return nil
			}
		}
		if info, err := d.Info(); err != nil || info.Size() > maxSearchedSize {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		rel, relErr := filepath.Rel(t.workspace, path)
		if relErr != nil {
			rel = path
		}

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				matches = append(matches, fmt.Sprintf("%s:%d:%s", rel, lineNo, strings.TrimSpace(line)))
				if len(matches) >= maxGrepMatches {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		if ctx.Err() != nil {
			return Fail("search cancelled"), nil
		}
		return Fail("search failed: %v", walkErr), nil
	}

	if len(matches) == 0 {
		return Ok("No matches found."), nil
	}
	header := fmt.Sprintf("%d matches:\n", len(matches))
	if len(matches) >= maxGrepMatches {
		header = fmt.Sprintf("%d+ matches (truncated):\n", maxGrepMatches)
	}
	return Ok(header + strings.Join(matches, "\n")), nil
}

// GlobTool finds files whose names match a glob pattern.
type GlobTool struct {
	workspace string
}

// NewGlobTool creates a glob tool rooted at workspace.
func NewGlobTool(workspace string) *GlobTool {
	return &GlobTool{workspace: workspace}
}

func (t *GlobTool) Name() string { return "glob" }

func (t *GlobTool) Description() string {
	return "Find files by name pattern, e.g. *.py or config.*. Searches the workspace recursively."
}

func (t *GlobTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Glob pattern matched against file names",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory to search (defaults to the workspace root)",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *GlobTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	pattern, ok := stringArg(args, "pattern")
	if !ok || pattern == "" {
		return Fail("pattern is required"), nil
	}
	root, _ := stringArg(args, "path")
	if root == "" {
		root = "."
	}

	var matches []string
	walkErr := filepath.WalkDir(resolvePath(t.workspace, root), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			rel, relErr := filepath.Rel(t.workspace, path)
			if relErr != nil {
				rel = path
			}
			matches = append(matches, rel)
			if len(matches) >= maxGlobMatches {
				return filepath.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		if ctx.Err() != nil {
			return Fail("search cancelled"), nil
		}
		return Fail("search failed: %v", walkErr), nil
	}

	if len(matches) == 0 {
		return Ok("No files found."), nil
	}
	return Ok(strings.Join(matches, "\n")), nil
}
