package llm

import "testing"

func TestMessageConstructors(t *testing.T) {
	sys := SystemMessage("rules")
	if sys.Role != RoleSystem || sys.Content != "rules" {
		t.Errorf("system message = %+v", sys)
	}

	user := UserMessage("hi")
	if user.Role != RoleUser || user.Content != "hi" {
		t.Errorf("user message = %+v", user)
	}

	asst := AssistantMessage("hello")
	if asst.Role != RoleAssistant || asst.Content != "hello" {
		t.Errorf("assistant message = %+v", asst)
	}

	calls := []ToolCall{{ID: "c1", Name: "shell", Arguments: "{}"}}
	withCalls := AssistantToolCallMessage(calls)
	if withCalls.Role != RoleAssistant || len(withCalls.ToolCalls) != 1 || withCalls.Content != "" {
		t.Errorf("assistant tool-call message = %+v", withCalls)
	}

	toolMsg := ToolResultMessage("c1", "output")
	if toolMsg.Role != RoleTool || toolMsg.ToolCallID != "c1" || toolMsg.Content != "output" {
		t.Errorf("tool result message = %+v", toolMsg)
	}
}

func TestDecodeArguments(t *testing.T) {
	tc := ToolCall{Arguments: `{"path":"a.txt","count":3}`}
	args := tc.DecodeArguments()
	if args["path"] != "a.txt" {
		t.Errorf("path = %v", args["path"])
	}
	if n, ok := args["count"].(float64); !ok || n != 3 {
		t.Errorf("count = %v", args["count"])
	}
}

func TestDecodeArgumentsMalformed(t *testing.T) {
	for _, raw := range []string{"not-json", "", "[1,2,3]", "null"} {
		tc := ToolCall{Arguments: raw}
		args := tc.DecodeArguments()
		if args == nil {
			t.Errorf("DecodeArguments(%q) returned nil, want empty map", raw)
			continue
		}
		if len(args) != 0 {
			t.Errorf("DecodeArguments(%q) = %v, want empty map", raw, args)
		}
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	b := Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}
	sum := a.Add(b)
	if sum.PromptTokens != 13 || sum.CompletionTokens != 7 || sum.TotalTokens != 20 {
		t.Errorf("sum = %+v", sum)
	}
}
