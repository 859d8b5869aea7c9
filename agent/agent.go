package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atharv20s/vscode-cli/llm"
	"github.com/atharv20s/vscode-cli/tools"
)

// StreamClient is the slice of the llm client the loop consumes: one
// streaming completion per turn. The client handles retry and backoff;
// errors that reach the loop (as StreamError events or a failed open) are
// post-retry and fatal to the run.
type StreamClient interface {
	StreamChat(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error)
}

// Options configures an Agent.
type Options struct {
	SystemPrompt  string
	Model         string
	MaxIterations int // iteration budget per run, >= 1
	ToolsEnabled  bool
	ShowTurnCount bool // emit turn_start events when tools are enabled

	// Auto-verification: after a successful mutating tool call, run
	// VerifyCommand through the registry's shell tool and report the
	// outcome as an extra tool result. Verification failures never abort
	// the turn.
	AutoVerify    bool
	VerifyCommand string
	MutatingTools []string

	// ParseThinking splits ```thinking fenced content out of the text
	// delta stream into thinking events. Best effort: the fence is a
	// textual convention and can misfire on ordinary triple-backtick
	// content.
	ParseThinking bool

	Logger *zap.Logger
}

// DefaultOptions returns the standard agent configuration.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 10,
		ToolsEnabled:  true,
		ShowTurnCount: true,
		MutatingTools: []string{"write_file", "edit_file", "create_file", "replace_string_in_file"},
	}
}

// Agent drives the agentic loop. It exclusively owns the message list for
// the duration of each Run; an instance is not re-entrant, but sequential
// Runs share the conversation so follow-up messages keep context.
type Agent struct {
	id       string
	client   StreamClient
	registry *tools.Registry
	opts     Options
	logger   *zap.Logger

	messages []llm.Message
	turn     int
	mutating map[string]bool

	running bool
	mu      sync.Mutex
}

// New creates an Agent. The system prompt is pinned as the first message
// and is never evicted.
func New(client StreamClient, registry *tools.Registry, opts Options) *Agent {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = "You are a helpful AI assistant."
	}

	mutating := make(map[string]bool, len(opts.MutatingTools))
	for _, name := range opts.MutatingTools {
		mutating[name] = true
	}

	return &Agent{
		id:       uuid.New().String(),
		client:   client,
		registry: registry,
		opts:     opts,
		logger:   logger,
		messages: []llm.Message{llm.SystemMessage(systemPrompt)},
		mutating: mutating,
	}
}

// ID returns the session identifier.
func (a *Agent) ID() string { return a.id }

// Messages returns a copy of the conversation history. Callers may persist
// it between runs but must not call this concurrently with an in-flight Run
// expecting a stable view of the final state.
func (a *Agent) Messages() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// SetMessages replaces the conversation history, e.g. when resuming a
// persisted session. The system prompt stays pinned first: a windowed or
// restored view that lost it gets it re-included.
func (a *Agent) SetMessages(messages []llm.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	system := a.messages[0]
	restored := make([]llm.Message, 0, len(messages)+1)
	if len(messages) == 0 || messages[0].Role != llm.RoleSystem {
		restored = append(restored, system)
	}
	restored = append(restored, messages...)
	a.messages = restored
}

// Run processes one user message through the agentic loop, returning the
// event stream. The caller must drain the channel; it is closed after the
// final agent_end event. Run must not be invoked again on the same Agent
// until the previous stream is exhausted.
func (a *Agent) Run(ctx context.Context, message string) <-chan Event {
	ch := make(chan Event, 64)

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		go func() {
			defer close(ch)
			ch <- agentErrorEvent("agent is already processing a message")
			ch <- agentEndEvent(nil)
		}()
		return ch
	}
	a.running = true
	a.mu.Unlock()

	go func() {
		defer close(ch)
		defer func() {
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
		}()

		a.append(llm.UserMessage(message))
		ch <- agentStartEvent(message)

		final := a.loop(ctx, ch)
		ch <- agentEndEvent(final)
	}()

	return ch
}

// loop is the turn engine. It emits every event except agent_start and
// agent_end and returns the final response text, nil when the run ended
// via agent_error.
func (a *Agent) loop(ctx context.Context, ch chan<- Event) *string {
	a.turn = 0

	for a.turn < a.opts.MaxIterations {
		a.turn++

		if a.opts.ToolsEnabled && a.opts.ShowTurnCount {
			ch <- turnStartEvent(a.turn, a.opts.MaxIterations)
		}

		// The schema snapshot is re-fetched each turn: long-lived sessions
		// may register or remove tools between calls.
		var defs []llm.ToolDefinition
		if a.opts.ToolsEnabled && a.registry != nil {
			defs = toolDefinitions(a.registry)
		}

		stream, err := a.client.StreamChat(ctx, llm.Request{
			Model:    a.opts.Model,
			Messages: a.Messages(),
			Tools:    defs,
		})
		if err != nil {
			ch <- agentErrorEvent(err.Error())
			return nil
		}

		responseText := ""
		var pending []ToolCall
		filter := newThinkingFilter(ch, a.opts.ParseThinking)
		failed := false

		for ev := range stream {
			switch ev.Type {
			case llm.StreamTextDelta:
				responseText += ev.Delta
				filter.Feed(ev.Delta)

			case llm.StreamToolCalls:
				// Release any held-back text first: deltas precede
				// tool_call events within a turn.
				filter.Flush()
				for _, tc := range ev.ToolCalls {
					call := ToolCall{
						ID:        tc.ID,
						Name:      tc.Name,
						Arguments: tc.DecodeArguments(),
					}
					pending = append(pending, call)
					ch <- toolCallEvent(call)
				}

			case llm.StreamError:
				// Post-retry transport failure: fatal to the run.
				filter.Flush()
				ch <- agentErrorEvent(ev.Err.Error())
				failed = true

			case llm.StreamFinish:
				// End of turn; usage tracking hooks in here if needed.
			}
			if failed {
				break
			}
		}
		if failed {
			return nil
		}
		filter.Flush()

		// Final answer: text with no tool calls.
		if responseText != "" && len(pending) == 0 {
			ch <- textCompleteEvent(responseText)
			a.append(llm.AssistantMessage(responseText))
			return &responseText
		}

		if len(pending) > 0 {
			a.executeToolCalls(ctx, ch, pending)
			continue
		}

		ch <- agentErrorEvent("No response from LLM")
		return nil
	}

	ch <- agentErrorEvent(fmt.Sprintf(
		"Max iterations (%d) reached. The task may be too complex or require manual intervention. Consider breaking it into smaller steps.",
		a.opts.MaxIterations,
	))
	return nil
}

// executeToolCalls records the assistant's call batch and runs each call
// sequentially, in the order the model requested them. Later calls in a
// batch may depend on earlier side effects, and result messages must land
// in a deterministic order for the next model call.
func (a *Agent) executeToolCalls(ctx context.Context, ch chan<- Event, pending []ToolCall) {
	batch := make([]llm.ToolCall, len(pending))
	for i, call := range pending {
		raw, err := json.Marshal(call.Arguments)
		if err != nil {
			raw = []byte("{}")
		}
		batch[i] = llm.ToolCall{ID: call.ID, Name: call.Name, Arguments: string(raw)}
	}
	a.append(llm.AssistantToolCallMessage(batch))

	for _, call := range pending {
		ch <- toolExecutingEvent(call.Name, call.Arguments)

		result := a.registry.Execute(ctx, call.Name, call.Arguments)
		if result.Success {
			ch <- toolResultEvent(call.ID, call.Name, result.Output, true)
			a.append(llm.ToolResultMessage(call.ID, result.Output))
			a.autoVerify(ctx, ch, call)
		} else {
			a.logger.Debug("tool failed",
				zap.String("tool", call.Name),
				zap.String("error", result.Error),
			)
			ch <- toolErrorEvent(call.ID, call.Name, result.Error)
			a.append(llm.ToolResultMessage(call.ID, "Error: "+result.Error))
		}
	}
}

// append adds a message to the conversation. History is append-only within
// a run: no reordering, no deletion.
func (a *Agent) append(msg llm.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
}

// toolDefinitions converts the registry snapshot to the llm schema type.
func toolDefinitions(registry *tools.Registry) []llm.ToolDefinition {
	defs := registry.Definitions()
	out := make([]llm.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = llm.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return out
}
