package tools

import (
	"github.com/atharv20s/vscode-cli/memory"
	"go.uber.org/zap"
)

// RegisterBuiltins populates a registry with the standard tool catalog:
// file I/O, shell, search, and git, plus the memory tools when a store is
// provided. Registration order is the order tools appear in the schema
// snapshot sent to the model.
func RegisterBuiltins(registry *Registry, workspace string, store *memory.Store, logger *zap.Logger) {
	registry.Register(NewReadFileTool(workspace))
	registry.Register(NewWriteFileTool(workspace))
	registry.Register(NewEditFileTool(workspace))
	registry.Register(NewListDirTool(workspace))
	registry.Register(NewShellTool(workspace, logger))
	registry.Register(NewGrepTool(workspace))
	registry.Register(NewGlobTool(workspace))
	registry.Register(NewGitStatusTool(workspace))
	registry.Register(NewGitDiffTool(workspace))
	registry.Register(NewGitLogTool(workspace))
	registry.Register(NewGitCommitTool(workspace))

	if store != nil {
		registry.Register(NewRememberTool(store))
		registry.Register(NewRecallTool(store))
		registry.Register(NewListMemoriesTool(store))
		registry.Register(NewForgetTool(store))
	}
}
