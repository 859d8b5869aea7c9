package history

import (
	"path/filepath"
	"testing"

	"github.com/atharv20s/vscode-cli/llm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleConversation() []llm.Message {
	return []llm.Message{
		llm.SystemMessage("be helpful"),
		llm.UserMessage("read a.txt"),
		llm.AssistantToolCallMessage([]llm.ToolCall{
			{ID: "c1", Name: "read_file", Arguments: `{"path":"a.txt"}`},
		}),
		llm.ToolResultMessage("c1", "contents"),
		llm.AssistantMessage("the file says contents"),
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("s1", "coder", "test-model", sampleConversation()); err != nil {
		t.Fatalf("save: %v", err)
	}

	msgs, err := store.Load("s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("loaded %d messages, want 5", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem || msgs[0].Content != "be helpful" {
		t.Errorf("messages[0] = %+v", msgs[0])
	}
	if len(msgs[2].ToolCalls) != 1 || msgs[2].ToolCalls[0].Name != "read_file" {
		t.Errorf("tool calls not restored: %+v", msgs[2])
	}
	if msgs[3].ToolCallID != "c1" || msgs[3].Content != "contents" {
		t.Errorf("tool result not restored: %+v", msgs[3])
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	store := openTestStore(t)

	if err := store.Save("s1", "default", "m", sampleConversation()); err != nil {
		t.Fatal(err)
	}
	longer := append(sampleConversation(),
		llm.UserMessage("thanks"),
		llm.AssistantMessage("any time"),
	)
	if err := store.Save("s1", "default", "m", longer); err != nil {
		t.Fatal(err)
	}

	msgs, err := store.Load("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 7 {
		t.Errorf("loaded %d messages, want 7 (no duplicated records)", len(msgs))
	}
}

func TestSessions(t *testing.T) {
	store := openTestStore(t)
	store.Save("s1", "coder", "model-a", sampleConversation())
	store.Save("s2", "teacher", "model-b", sampleConversation())

	sessions, err := store.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	byID := map[string]Session{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	if byID["s1"].Persona != "coder" || byID["s2"].Model != "model-b" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	store.Save("s1", "default", "m", sampleConversation())

	if err := store.Delete("s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	msgs, err := store.Load("s1")
	if err != nil {
		t.Fatalf("load after delete: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("loaded %d messages after delete", len(msgs))
	}

	sessions, _ := store.Sessions()
	if len(sessions) != 0 {
		t.Errorf("%d sessions remain after delete", len(sessions))
	}
}

func TestLoadUnknownSession(t *testing.T) {
	store := openTestStore(t)
	msgs, err := store.Load("nope")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("loaded %d messages for unknown session", len(msgs))
	}
}
