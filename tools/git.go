package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 30 * time.Second

// runGit executes a git subcommand in the workspace.
func runGit(ctx context.Context, workspace string, args ...string) (string, error) {
	gitCtx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(gitCtx, "git", args...)
	cmd.Dir = workspace
	output, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(output))
	if err != nil {
		if text != "" {
			return "", fmt.Errorf("%s", text)
		}
		return "", err
	}
	return text, nil
}

// GitStatusTool shows the working tree status.
type GitStatusTool struct {
	workspace string
}

// NewGitStatusTool creates a git_status tool rooted at workspace.
func NewGitStatusTool(workspace string) *GitStatusTool {
	return &GitStatusTool{workspace: workspace}
}

func (t *GitStatusTool) Name() string { return "git_status" }

func (t *GitStatusTool) Description() string {
	return "Show the git working tree status: current branch, staged, modified, and untracked files."
}

func (t *GitStatusTool) Schema() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}

func (t *GitStatusTool) Execute(ctx context.Context, _ map[string]interface{}) (*Result, error) {
	out, err := runGit(ctx, t.workspace, "status", "--short", "--branch")
	if err != nil {
		return Fail("git status failed: %v", err), nil
	}
	return Ok(out), nil
}

// GitDiffTool shows working tree or staged changes.
type GitDiffTool struct {
	workspace string
}

// NewGitDiffTool creates a git_diff tool rooted at workspace.
func NewGitDiffTool(workspace string) *GitDiffTool {
	return &GitDiffTool{workspace: workspace}
}

func (t *GitDiffTool) Name() string { return "git_diff" }

func (t *GitDiffTool) Description() string {
	return "Show uncommitted changes as a unified diff. Optionally limit to one file or show only staged changes."
}

func (t *GitDiffTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"file": map[string]interface{}{
				"type":        "string",
				"description": "Limit the diff to this file",
			},
			"staged": map[string]interface{}{
				"type":        "boolean",
				"description": "Show staged changes instead of unstaged ones",
			},
		},
	}
}

func (t *GitDiffTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	gitArgs := []string{"diff"}
	if staged, _ := boolArg(args, "staged"); staged {
		gitArgs = append(gitArgs, "--cached")
	}
	if file, _ := stringArg(args, "file"); file != "" {
		gitArgs = append(gitArgs, "--", file)
	}

	out, err := runGit(ctx, t.workspace, gitArgs...)
	if err != nil {
		return Fail("git diff failed: %v", err), nil
	}
	if out == "" {
		return Ok("No changes."), nil
	}
	return Ok(out), nil
}

// GitLogTool shows recent commit history.
type GitLogTool struct {
	workspace string
}

// NewGitLogTool creates a git_log tool rooted at workspace.
func NewGitLogTool(workspace string) *GitLogTool {
	return &GitLogTool{workspace: workspace}
}

func (t *GitLogTool) Name() string { return "git_log" }

func (t *GitLogTool) Description() string {
	return "Show recent commits (hash, author, date, subject). Optionally limit to one file."
}

func (t *GitLogTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"count": map[string]interface{}{
				"type":        "integer",
				"description": "Number of commits to show (default 10)",
			},
			"file": map[string]interface{}{
				"type":        "string",
				"description": "Limit the log to this file",
			},
		},
	}
}

func (t *GitLogTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	count := 10
	if n, ok := intArg(args, "count"); ok && n > 0 {
		count = n
	}
	gitArgs := []string{"log", fmt.Sprintf("-%d", count), "--pretty=format:%h %an %ad %s", "--date=short"}
	if file, _ := stringArg(args, "file"); file != "" {
		gitArgs = append(gitArgs, "--", file)
	}

	out, err := runGit(ctx, t.workspace, gitArgs...)
	if err != nil {
		return Fail("git log failed: %v", err), nil
	}
	if out == "" {
		return Ok("No commits."), nil
	}
	return Ok(out), nil
}

// GitCommitTool stages and commits changes.
type GitCommitTool struct {
	workspace string
}

// NewGitCommitTool creates a git_commit tool rooted at workspace.
func NewGitCommitTool(workspace string) *GitCommitTool {
	return &GitCommitTool{workspace: workspace}
}

func (t *GitCommitTool) Name() string { return "git_commit" }

func (t *GitCommitTool) Description() string {
	return "Commit changes with a message. By default stages all modified files first."
}

func (t *GitCommitTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Commit message",
			},
			"add_all": map[string]interface{}{
				"type":        "boolean",
				"description": "Stage all changes before committing (default true)",
			},
		},
		"required": []string{"message"},
	}
}

func (t *GitCommitTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	message, ok := stringArg(args, "message")
	if !ok || message == "" {
		return Fail("message is required"), nil
	}

	addAll := true
	if v, ok := boolArg(args, "add_all"); ok {
		addAll = v
	}
	if addAll {
		if _, err := runGit(ctx, t.workspace, "add", "-A"); err != nil {
			return Fail("git add failed: %v", err), nil
		}
	}

	out, err := runGit(ctx, t.workspace, "commit", "-m", message)
	if err != nil {
		return Fail("git commit failed: %v", err), nil
	}
	return Ok(out), nil
}
