package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/atharv20s/vscode-cli/agent"
	"github.com/atharv20s/vscode-cli/llm"
	"github.com/atharv20s/vscode-cli/tools"
)

type scriptedClient struct {
	scripts [][]llm.StreamEvent
}

func (c *scriptedClient) StreamChat(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error) {
	script := c.scripts[0]
	c.scripts = c.scripts[1:]
	ch := make(chan llm.StreamEvent, len(script))
	for _, ev := range script {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

type echoTool struct{}

func (echoTool) Name() string                   { return "echo" }
func (echoTool) Description() string            { return "echoes" }
func (echoTool) Schema() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (echoTool) Execute(ctx context.Context, args map[string]interface{}) (*tools.Result, error) {
	return tools.Ok("echoed"), nil
}

func newTestApp(client agent.StreamClient, registry *tools.Registry) (*App, *bytes.Buffer) {
	a := agent.New(client, registry, agent.Options{
		MaxIterations: 5,
		ToolsEnabled:  registry != nil,
		ShowTurnCount: true,
	})
	out := &bytes.Buffer{}
	app := NewApp(a, registry, AppOptions{
		Renderer: NewRenderer(80, true),
		In:       strings.NewReader(""),
		Out:      out,
		Model:    "test-model",
		Persona:  "default",
	})
	return app, out
}

func TestRunOnceRendersResponse(t *testing.T) {
	client := &scriptedClient{scripts: [][]llm.StreamEvent{{
		{Type: llm.StreamTextDelta, Delta: "The answer is 4."},
		{Type: llm.StreamFinish, FinishReason: "stop"},
	}}}
	app, out := newTestApp(client, nil)

	if err := app.RunOnce(context.Background(), "2+2?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "The answer is 4.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunOnceReportsAgentError(t *testing.T) {
	client := &scriptedClient{scripts: [][]llm.StreamEvent{{
		{Type: llm.StreamFinish, FinishReason: "stop"},
	}}}
	app, out := newTestApp(client, nil)

	err := app.RunOnce(context.Background(), "hello?")
	if err == nil {
		t.Fatal("expected error for a run that ends in agent_error")
	}
	if !strings.Contains(out.String(), "No response from LLM") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunOnceRendersToolActivity(t *testing.T) {
	registry := tools.NewRegistry(nil)
	registry.Register(echoTool{})

	client := &scriptedClient{scripts: [][]llm.StreamEvent{
		{
			{Type: llm.StreamToolCalls, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "echo", Arguments: "{}"}}},
			{Type: llm.StreamFinish, FinishReason: "tool_calls"},
		},
		{
			{Type: llm.StreamTextDelta, Delta: "done"},
			{Type: llm.StreamFinish, FinishReason: "stop"},
		},
	}}
	app, out := newTestApp(client, registry)

	if err := app.RunOnce(context.Background(), "use the tool"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "echo") {
		t.Errorf("tool activity missing from output: %q", text)
	}
	if !strings.Contains(text, "turn 1/5") || !strings.Contains(text, "turn 2/5") {
		t.Errorf("turn counters missing from output: %q", text)
	}
}

func TestREPLHandlesCommandsAndExit(t *testing.T) {
	registry := tools.NewRegistry(nil)
	registry.Register(echoTool{})

	a := agent.New(&scriptedClient{}, registry, agent.Options{MaxIterations: 5})
	out := &bytes.Buffer{}
	app := NewApp(a, registry, AppOptions{
		Renderer: NewRenderer(80, true),
		In:       strings.NewReader("/tools\n/help\n/exit\n"),
		Out:      out,
		Model:    "test-model",
	})

	if err := app.RunREPL(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "echo") {
		t.Errorf("/tools output missing: %q", text)
	}
	if !strings.Contains(text, "/exit") {
		t.Errorf("/help output missing: %q", text)
	}
}

func TestSummarizeArgs(t *testing.T) {
	got := summarizeArgs(map[string]interface{}{"command": "ls -la", "timeout": 5})
	if got != "ls -la" {
		t.Errorf("summary = %q, want the priority arg", got)
	}

	if summarizeArgs(nil) != "" {
		t.Error("empty args should summarize to empty string")
	}

	long := strings.Repeat("x", 100)
	got = summarizeArgs(map[string]interface{}{"path": long})
	if len(got) > 70 {
		t.Errorf("summary not truncated: %d chars", len(got))
	}
}
