package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultShellTimeout = 60 * time.Second
	maxShellTimeout     = 10 * time.Minute
	maxShellOutput      = 32 * 1024
)

// ShellTool executes a shell command in the workspace with a timeout.
type ShellTool struct {
	workspace string
	logger    *zap.Logger
}

// NewShellTool creates a shell tool rooted at workspace.
func NewShellTool(workspace string, logger *zap.Logger) *ShellTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellTool{workspace: workspace, logger: logger}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return `Execute a shell command and return its combined output.
Commands time out after 60 seconds by default. Avoid interactive or
long-running commands (top, watch, tail -f). Working directory is the
workspace root.`
}

func (t *ShellTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"timeout": map[string]interface{}{
				"type":        "integer",
				"description": "Timeout in seconds (default 60, max 600)",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ShellTool) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	command, ok := stringArg(args, "command")
	if !ok || command == "" {
		return Fail("command is required"), nil
	}

	timeout := defaultShellTimeout
	if secs, ok := intArg(args, "timeout"); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
		if timeout > maxShellTimeout {
			timeout = maxShellTimeout
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t.logger.Debug("executing shell command", zap.String("command", command))

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	cmd.Dir = t.workspace
	output, err := cmd.CombinedOutput()

	text := string(output)
	if len(text) > maxShellOutput {
		text = text[:maxShellOutput] + fmt.Sprintf("\n... (output truncated at %d bytes)", maxShellOutput)
	}

	if cmdCtx.Err() == context.DeadlineExceeded {
		return Fail("command timed out after %s\n%s", timeout, text), nil
	}
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		msg := fmt.Sprintf("command failed (exit code %d)", exitCode)
		if strings.TrimSpace(text) != "" {
			msg += "\n" + text
		}
		return Fail("%s", msg), nil
	}

	if strings.TrimSpace(text) == "" {
		return Ok("(no output)"), nil
	}
	return Ok(text), nil
}
