// Package tools defines the capability interface the agent loop consumes
// and the builtin tool catalog: file I/O, shell execution, search, git, and
// persistent memory. Tools receive decoded structured arguments and return
// a success/output or failure/error result; they never panic across the
// registry boundary.
package tools

import (
	"context"
	"fmt"
)

// Result is the outcome of one tool execution.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Ok creates a successful Result.
func Ok(output string) *Result {
	return &Result{Success: true, Output: output}
}

// Fail creates a failed Result.
func Fail(format string, args ...interface{}) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// ToMessage converts the result into the content of a tool message for the
// model. Failures are prefixed so the model can recognize and react to them.
func (r *Result) ToMessage() string {
	if r.Success {
		return r.Output
	}
	return "Error: " + r.Error
}

// Definition describes a tool to the model.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Tool is a named executable capability.
type Tool interface {
	Name() string
	Description() string
	// Schema returns the JSON Schema for the tool's parameters.
	Schema() map[string]interface{}
	// Execute runs the tool with decoded arguments. Implementations report
	// expected failures through the Result; the returned error is reserved
	// for unexpected conditions and is also folded into a failed Result by
	// the registry.
	Execute(ctx context.Context, args map[string]interface{}) (*Result, error)
}

// stringArg extracts a string argument, reporting whether it was present.
func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts an integer argument. JSON numbers decode as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// boolArg extracts a boolean argument.
func boolArg(args map[string]interface{}, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
