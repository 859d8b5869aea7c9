package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxReadBytes = 256 * 1024

// resolvePath anchors relative paths at the workspace root.
func resolvePath(workspace, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(workspace, path)
}

// ReadFileTool reads a file's contents.
type ReadFileTool struct {
	workspace string
}

// NewReadFileTool creates a read_file tool rooted at workspace.
func NewReadFileTool(workspace string) *ReadFileTool {
	return &ReadFileTool{workspace: workspace}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Use this before editing a file or when asked about its contents."
}

func (t *ReadFileTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to read (relative to the workspace or absolute)",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return Fail("path is required"), nil
	}

	full := resolvePath(t.workspace, path)
	info, err := os.Stat(full)
	if err != nil {
		return Fail("cannot read %s: %v", path, err), nil
	}
	if info.IsDir() {
		return Fail("%s is a directory, not a file", path), nil
	}
	if info.Size() > maxReadBytes {
		return Fail("%s is too large (%d bytes, limit %d)", path, info.Size(), maxReadBytes), nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Fail("cannot read %s: %v", path, err), nil
	}
	return Ok(string(data)), nil
}

// WriteFileTool creates or overwrites a file.
type WriteFileTool struct {
	workspace string
}

// NewWriteFileTool creates a write_file tool rooted at workspace.
func NewWriteFileTool(workspace string) *WriteFileTool {
	return &WriteFileTool{workspace: workspace}
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write content to a file, creating it (and parent directories) if needed. Overwrites existing content."
}

func (t *WriteFileTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Full content to write to the file",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return Fail("path is required"), nil
	}
	content, ok := stringArg(args, "content")
	if !ok {
		return Fail("content is required"), nil
	}

	full := resolvePath(t.workspace, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Fail("cannot create directory for %s: %v", path, err), nil
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return Fail("cannot write %s: %v", path, err), nil
	}
	return Ok(fmt.Sprintf("Wrote %d bytes to %s", len(content), path)), nil
}

// EditFileTool replaces an exact string occurrence in a file.
type EditFileTool struct {
	workspace string
}

// NewEditFileTool creates an edit_file tool rooted at workspace.
func NewEditFileTool(workspace string) *EditFileTool {
	return &EditFileTool{workspace: workspace}
}

func (t *EditFileTool) Name() string { return "edit_file" }

func (t *EditFileTool) Description() string {
	return "Edit a file by replacing an exact string with a new one. The old string must appear exactly once."
}

func (t *EditFileTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to edit",
			},
			"old_string": map[string]interface{}{
				"type":        "string",
				"description": "Exact text to replace",
			},
			"new_string": map[string]interface{}{
				"type":        "string",
				"description": "Replacement text",
			},
		},
		"required": []string{"path", "old_string", "new_string"},
	}
}

func (t *EditFileTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return Fail("path is required"), nil
	}
	oldString, ok := stringArg(args, "old_string")
	if !ok || oldString == "" {
		return Fail("old_string is required"), nil
	}
	newString, _ := stringArg(args, "new_string")

	full := resolvePath(t.workspace, path)
	data, err := os.ReadFile(full)
	if err != nil {
		return Fail("cannot read %s: %v", path, err), nil
	}

	content := string(data)
	count := strings.Count(content, oldString)
	if count == 0 {
		return Fail("old_string not found in %s", path), nil
	}
	if count > 1 {
		return Fail("old_string appears %d times in %s; provide more context to make it unique", count, path), nil
	}

	updated := strings.Replace(content, oldString, newString, 1)
	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return Fail("cannot write %s: %v", path, err), nil
	}
	return Ok(fmt.Sprintf("Edited %s", path)), nil
}

// ListDirTool lists the entries of a directory.
type ListDirTool struct {
	workspace string
}

// NewListDirTool creates a list_dir tool rooted at workspace.
func NewListDirTool(workspace string) *ListDirTool {
	return &ListDirTool{workspace: workspace}
}

func (t *ListDirTool) Name() string { return "list_dir" }

func (t *ListDirTool) Description() string {
	return "List the files and subdirectories of a directory."
}

func (t *ListDirTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory to list (defaults to the workspace root)",
			},
		},
	}
}

func (t *ListDirTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	path, _ := stringArg(args, "path")
	if path == "" {
		path = "."
	}

	full := resolvePath(t.workspace, path)
	entries, err := os.ReadDir(full)
	if err != nil {
		return Fail("cannot list %s: %v", path, err), nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return Ok("(empty directory)"), nil
	}
	return Ok(strings.Join(names, "\n")), nil
}
