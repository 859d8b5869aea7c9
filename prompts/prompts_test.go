package prompts

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestNames(t *testing.T) {
	names := Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	want := map[string]bool{}
	for _, n := range []string{"default", "coder", "teacher", "analyst", "terminal", "concise"} {
		want[n] = false
	}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("persona %q missing from Names()", n)
		}
	}
}

func TestSystemPromptFallsBackToDefault(t *testing.T) {
	if SystemPrompt("coder") == SystemPrompt("default") {
		t.Error("coder persona should differ from default")
	}
	if SystemPrompt("no-such-persona") != SystemPrompt("default") {
		t.Error("unknown persona should fall back to default")
	}
}

func TestWithTools(t *testing.T) {
	base := "base prompt"
	got := WithTools(base, []string{"read_file", "shell"})
	if !strings.HasPrefix(got, base) {
		t.Errorf("tool preamble replaced the prompt: %q", got)
	}
	if !strings.Contains(got, "read_file, shell") {
		t.Errorf("tool names missing: %q", got)
	}

	if WithTools(base, nil) != base {
		t.Error("no tools should leave the prompt untouched")
	}
}

func TestLoadAgentsMD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AGENTS.md")
	if err := os.WriteFile(path, []byte("  Always run gofmt.  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := LoadAgentsMD(path); got != "Always run gofmt." {
		t.Errorf("content = %q", got)
	}
	if got := LoadAgentsMD(filepath.Join(dir, "missing.md")); got != "" {
		t.Errorf("missing file yielded %q", got)
	}

	empty := filepath.Join(dir, "empty.md")
	if err := os.WriteFile(empty, []byte("   \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LoadAgentsMD(empty); got != "" {
		t.Errorf("blank file yielded %q", got)
	}
}

func TestWithAgentsMD(t *testing.T) {
	got := WithAgentsMD("base", "custom rules")
	if !strings.Contains(got, "base") || !strings.Contains(got, "custom rules") {
		t.Errorf("combined prompt = %q", got)
	}
	if WithAgentsMD("base", "") != "base" {
		t.Error("empty instructions should leave the prompt untouched")
	}
}
