// Package llm provides the streaming chat-completion client used by the
// agent loop. It presents a provider-agnostic interface: requests carry an
// ordered message history plus optional tool definitions, and responses
// arrive as a normalized stream of events (text delta, tool-call batch,
// finish, error). Retry with exponential backoff happens inside this
// package; only unrecoverable errors surface to callers.
package llm

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the fundamental unit of conversation. Assistant messages that
// carry tool calls have empty Content; tool messages tie their result back
// to the invoking call via ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message with text content.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// AssistantToolCallMessage creates an assistant Message carrying only tool
// calls (no text content).
func AssistantToolCallMessage(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolResultMessage creates a tool Message holding an execution result.
func ToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// ToolCall is a model-initiated tool invocation. Arguments holds the raw
// argument payload exactly as the provider produced it; decoding (and the
// malformed-payload fallback) is the caller's concern.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// DecodeArguments parses the raw argument payload into a map. A malformed
// or empty payload yields an empty map rather than an error: the agent loop
// treats bad arguments as an empty-argument call, never as a turn failure.
func (tc ToolCall) DecodeArguments() map[string]interface{} {
	args := make(map[string]interface{})
	if tc.Arguments == "" {
		return args
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil || args == nil {
		return make(map[string]interface{})
	}
	return args
}

// ToolDefinition describes a tool to the model (serializable schema only).
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Usage tracks token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns a new Usage that is the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Request is the input for both Complete and StreamChat.
type Request struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Provider    string           `json:"provider,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
}

// Response is the fully accumulated output of one completion.
type Response struct {
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        Usage      `json:"usage"`
}

// StreamEventType identifies the kind of stream event.
type StreamEventType string

const (
	// StreamTextDelta carries an incremental text fragment.
	StreamTextDelta StreamEventType = "text_delta"
	// StreamToolCalls carries a completed batch of accumulated tool calls.
	// It is emitted at most once per request, after the provider signals
	// that all tool calls for the turn are fully accumulated.
	StreamToolCalls StreamEventType = "tool_calls"
	// StreamFinish marks the end of the turn and carries usage if known.
	StreamFinish StreamEventType = "finish"
	// StreamError carries an unrecoverable transport or provider error.
	StreamError StreamEventType = "error"
)

// StreamEvent is a single normalized event from a streaming completion.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Delta        string          `json:"delta,omitempty"`
	ToolCalls    []ToolCall      `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	Err          error           `json:"-"`
}

// RateLimitInfo holds rate limit metadata parsed from response headers.
type RateLimitInfo struct {
	RequestsRemaining *int       `json:"requests_remaining,omitempty"`
	TokensRemaining   *int       `json:"tokens_remaining,omitempty"`
	ResetAt           *time.Time `json:"reset_at,omitempty"`
}
