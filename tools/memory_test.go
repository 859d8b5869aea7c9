package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atharv20s/vscode-cli/memory"
)

func memoryFixture(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRememberAndRecall(t *testing.T) {
	store := memoryFixture(t)
	ctx := context.Background()

	res, err := NewRememberTool(store).Execute(ctx, map[string]interface{}{
		"key":   "editor",
		"value": "user prefers vim keybindings",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("remember result = %+v", res)
	}

	res, _ = NewRecallTool(store).Execute(ctx, map[string]interface{}{"key": "editor"})
	if !res.Success || res.Output != "user prefers vim keybindings" {
		t.Errorf("recall result = %+v", res)
	}
}

func TestRecallUnknownKey(t *testing.T) {
	store := memoryFixture(t)
	res, _ := NewRecallTool(store).Execute(context.Background(), map[string]interface{}{"key": "absent"})
	if res.Success || !strings.Contains(res.Error, "absent") {
		t.Errorf("result = %+v", res)
	}
}

func TestListMemoriesByCategory(t *testing.T) {
	store := memoryFixture(t)
	ctx := context.Background()
	remember := NewRememberTool(store)

	remember.Execute(ctx, map[string]interface{}{"key": "lang", "value": "go", "category": "project"})
	remember.Execute(ctx, map[string]interface{}{"key": "tabs", "value": "spaces", "category": "preferences"})

	res, _ := NewListMemoriesTool(store).Execute(ctx, map[string]interface{}{"category": "project"})
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "lang: go") {
		t.Errorf("listing missing project entry: %q", res.Output)
	}
	if strings.Contains(res.Output, "tabs") {
		t.Errorf("listing leaked other category: %q", res.Output)
	}
}

func TestListMemoriesEmpty(t *testing.T) {
	store := memoryFixture(t)
	res, _ := NewListMemoriesTool(store).Execute(context.Background(), map[string]interface{}{})
	if !res.Success || res.Output != "No memories stored." {
		t.Errorf("result = %+v", res)
	}
}

func TestForgetTool(t *testing.T) {
	store := memoryFixture(t)
	ctx := context.Background()

	NewRememberTool(store).Execute(ctx, map[string]interface{}{"key": "temp", "value": "x"})

	res, _ := NewForgetTool(store).Execute(ctx, map[string]interface{}{"key": "temp"})
	if !res.Success {
		t.Fatalf("forget result = %+v", res)
	}

	res, _ = NewRecallTool(store).Execute(ctx, map[string]interface{}{"key": "temp"})
	if res.Success {
		t.Error("recall after forget should fail")
	}

	res, _ = NewForgetTool(store).Execute(ctx, map[string]interface{}{"key": "temp"})
	if res.Success {
		t.Error("forgetting twice should fail the second time")
	}
}

func TestRegisterBuiltins(t *testing.T) {
	store := memoryFixture(t)
	registry := NewRegistry(nil)
	RegisterBuiltins(registry, t.TempDir(), store, nil)

	for _, name := range []string{
		"read_file", "write_file", "edit_file", "list_dir",
		"shell", "grep", "glob",
		"git_status", "git_diff", "git_log", "git_commit",
		"remember", "recall", "list_memories", "forget",
	} {
		if !registry.Has(name) {
			t.Errorf("builtin %q not registered", name)
		}
	}
}

func TestRegisterBuiltinsWithoutStore(t *testing.T) {
	registry := NewRegistry(nil)
	RegisterBuiltins(registry, t.TempDir(), nil, nil)

	if registry.Has("remember") {
		t.Error("memory tools should be absent without a store")
	}
	if !registry.Has("shell") {
		t.Error("core tools missing")
	}
}
