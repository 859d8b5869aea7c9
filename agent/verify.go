package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/atharv20s/vscode-cli/llm"
)

// verifyToolName is how the verification step identifies itself in events
// and in the conversation record sent back to the model.
const verifyToolName = "run_auto_tests"

// autoVerify runs the configured verification command after a successful
// mutating tool call. The outcome is reported to the model as an extra
// tool result so it can react to regressions, but a verification failure
// never fails the turn. Panics from the hook are swallowed.
func (a *Agent) autoVerify(ctx context.Context, ch chan<- Event, call ToolCall) {
	if !a.opts.AutoVerify || a.opts.VerifyCommand == "" {
		return
	}
	if !a.mutating[call.Name] {
		return
	}
	if a.registry == nil || !a.registry.Has("shell") {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("auto-verify panicked", zap.Any("panic", r))
		}
	}()

	verifyID := "auto_verify_" + call.ID
	args := map[string]interface{}{"command": a.opts.VerifyCommand}

	ch <- toolExecutingEvent(verifyToolName, args)
	result := a.registry.Execute(ctx, "shell", args)

	// Failures stay on the tool_result channel with success=false; the
	// tool_error kind is reserved for tool calls requested by the model.
	if result.Success {
		ch <- toolResultEvent(verifyID, verifyToolName, result.Output, true)
		a.append(llm.ToolResultMessage(verifyID, "Verification passed:\n"+result.Output))
	} else {
		ch <- toolResultEvent(verifyID, verifyToolName, result.Error, false)
		a.append(llm.ToolResultMessage(verifyID, "Verification failed:\n"+result.Error))
	}
}
