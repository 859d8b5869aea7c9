package llm

import "testing"

func TestParseInlineToolCallsSingle(t *testing.T) {
	calls := parseInlineToolCalls(`{"name":"read_file","arguments":{"path":"a.txt"}}`)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Name != "read_file" {
		t.Errorf("name = %q", calls[0].Name)
	}
	if calls[0].ID == "" {
		t.Error("call id must be assigned")
	}
	args := calls[0].DecodeArguments()
	if args["path"] != "a.txt" {
		t.Errorf("arguments = %v", args)
	}
}

func TestParseInlineToolCallsArray(t *testing.T) {
	calls := parseInlineToolCalls(`[{"name":"a","arguments":{}},{"name":"b","arguments":{"x":1}}]`)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Name != "a" || calls[1].Name != "b" {
		t.Errorf("names = %q, %q", calls[0].Name, calls[1].Name)
	}
	if calls[0].ID == calls[1].ID {
		t.Error("call ids must be distinct")
	}
}

func TestParseInlineToolCallsPlainText(t *testing.T) {
	for _, text := range []string{
		"The answer is 4.",
		"{malformed json",
		`{"not_a_call": true}`,
		`["just","strings"]`,
		"",
	} {
		if calls := parseInlineToolCalls(text); calls != nil {
			t.Errorf("parseInlineToolCalls(%q) = %v, want nil", text, calls)
		}
	}
}

func TestGollmBuildResponse(t *testing.T) {
	a := &GollmAdapter{provider: "anthropic", model: "default-model"}

	resp := a.buildResponse(Request{}, "plain answer")
	if resp.Content != "plain answer" || resp.FinishReason != "stop" {
		t.Errorf("text response = %+v", resp)
	}
	if resp.Model != "default-model" {
		t.Errorf("model = %q, want adapter default", resp.Model)
	}

	resp = a.buildResponse(Request{Model: "override"}, `{"name":"shell","arguments":{"command":"ls"}}`)
	if resp.FinishReason != "tool_calls" || len(resp.ToolCalls) != 1 {
		t.Errorf("tool response = %+v", resp)
	}
	if resp.Content != "" {
		t.Errorf("tool response content = %q, want empty", resp.Content)
	}
	if resp.Model != "override" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestGollmTranslateRequestFlattensHistory(t *testing.T) {
	a := &GollmAdapter{provider: "anthropic"}
	prompt := a.translateRequest(Request{
		Messages: []Message{
			SystemMessage("be terse"),
			UserMessage("read the file"),
			AssistantToolCallMessage([]ToolCall{{ID: "c1", Name: "read_file", Arguments: `{"path":"a"}`}}),
			ToolResultMessage("c1", "contents"),
			AssistantMessage("the file says contents"),
		},
	})

	if prompt.SystemPrompt != "be terse" {
		t.Errorf("system prompt = %q", prompt.SystemPrompt)
	}
	for _, want := range []string{"read the file", "read_file", "[Tool Result]", "contents"} {
		if !containsStr(prompt.Input, want) {
			t.Errorf("flattened prompt missing %q:\n%s", want, prompt.Input)
		}
	}
}

func containsStr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
