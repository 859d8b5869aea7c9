package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/atharv20s/vscode-cli/memory"
)

// RememberTool stores a fact in persistent memory.
type RememberTool struct {
	store *memory.Store
}

// NewRememberTool creates a remember tool over store.
func NewRememberTool(store *memory.Store) *RememberTool {
	return &RememberTool{store: store}
}

func (t *RememberTool) Name() string { return "remember" }

func (t *RememberTool) Description() string {
	return "Store a fact in persistent memory under a key. Use this to remember user preferences or project details across sessions."
}

func (t *RememberTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Short identifier for the fact",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "The fact to remember",
			},
			"category": map[string]interface{}{
				"type":        "string",
				"description": "Optional grouping, e.g. preferences, project",
			},
		},
		"required": []string{"key", "value"},
	}
}

func (t *RememberTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	key, ok := stringArg(args, "key")
	if !ok || key == "" {
		return Fail("key is required"), nil
	}
	value, ok := stringArg(args, "value")
	if !ok || value == "" {
		return Fail("value is required"), nil
	}
	category, _ := stringArg(args, "category")

	if err := t.store.Remember(key, value, category); err != nil {
		return Fail("failed to remember %s: %v", key, err), nil
	}
	return Ok(fmt.Sprintf("Remembered %q", key)), nil
}

// RecallTool retrieves a fact from persistent memory.
type RecallTool struct {
	store *memory.Store
}

// NewRecallTool creates a recall tool over store.
func NewRecallTool(store *memory.Store) *RecallTool {
	return &RecallTool{store: store}
}

func (t *RecallTool) Name() string { return "recall" }

func (t *RecallTool) Description() string {
	return "Retrieve a fact from persistent memory by key."
}

func (t *RecallTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Key of the fact to retrieve",
			},
		},
		"required": []string{"key"},
	}
}

func (t *RecallTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	key, ok := stringArg(args, "key")
	if !ok || key == "" {
		return Fail("key is required"), nil
	}

	value, found, err := t.store.Recall(key)
	if err != nil {
		return Fail("failed to recall %s: %v", key, err), nil
	}
	if !found {
		return Fail("nothing remembered under %q", key), nil
	}
	return Ok(value), nil
}

// ListMemoriesTool lists remembered facts.
type ListMemoriesTool struct {
	store *memory.Store
}

// NewListMemoriesTool creates a list_memories tool over store.
func NewListMemoriesTool(store *memory.Store) *ListMemoriesTool {
	return &ListMemoriesTool{store: store}
}

func (t *ListMemoriesTool) Name() string { return "list_memories" }

func (t *ListMemoriesTool) Description() string {
	return "List all remembered facts, optionally filtered by category."
}

func (t *ListMemoriesTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"category": map[string]interface{}{
				"type":        "string",
				"description": "Only list facts in this category",
			},
		},
	}
}

func (t *ListMemoriesTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	category, _ := stringArg(args, "category")

	entries, err := t.store.List(category)
	if err != nil {
		return Fail("failed to list memories: %v", err), nil
	}
	if len(entries) == 0 {
		return Ok("No memories stored."), nil
	}

	var sb strings.Builder
	for _, e := range entries {
		if e.Category != "" {
			fmt.Fprintf(&sb, "[%s] %s: %s\n", e.Category, e.Key, e.Value)
		} else {
			fmt.Fprintf(&sb, "%s: %s\n", e.Key, e.Value)
		}
	}
	return Ok(strings.TrimRight(sb.String(), "\n")), nil
}

// ForgetTool removes a fact from persistent memory.
type ForgetTool struct {
	store *memory.Store
}

// NewForgetTool creates a forget tool over store.
func NewForgetTool(store *memory.Store) *ForgetTool {
	return &ForgetTool{store: store}
}

func (t *ForgetTool) Name() string { return "forget" }

func (t *ForgetTool) Description() string {
	return "Remove a fact from persistent memory by key."
}

func (t *ForgetTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Key of the fact to remove",
			},
		},
		"required": []string{"key"},
	}
}

func (t *ForgetTool) Execute(_ context.Context, args map[string]interface{}) (*Result, error) {
	key, ok := stringArg(args, "key")
	if !ok || key == "" {
		return Fail("key is required"), nil
	}

	removed, err := t.store.Forget(key)
	if err != nil {
		return Fail("failed to forget %s: %v", key, err), nil
	}
	if !removed {
		return Fail("nothing remembered under %q", key), nil
	}
	return Ok(fmt.Sprintf("Forgot %q", key)), nil
}
