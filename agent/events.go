package agent

import "time"

// EventKind identifies the type of an agent event.
type EventKind string

const (
	EventAgentStart    EventKind = "agent_start"
	EventAgentEnd      EventKind = "agent_end"
	EventAgentError    EventKind = "agent_error"
	EventTurnStart     EventKind = "turn_start"
	EventTextDelta     EventKind = "text_delta"
	EventTextComplete  EventKind = "text_complete"
	EventThinkingStart EventKind = "thinking_start"
	EventThinkingDelta EventKind = "thinking_delta"
	EventThinkingEnd   EventKind = "thinking_end"
	EventToolCall      EventKind = "tool_call"
	EventToolExecuting EventKind = "tool_executing"
	EventToolResult    EventKind = "tool_result"
	EventToolError     EventKind = "tool_error"
)

// ToolCall is a decoded model-initiated tool invocation. Arguments are
// always non-nil: malformed raw payloads decode to an empty map.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Event is a tagged union: Kind selects which payload pointer is set.
// Exactly one of text_complete or agent_error terminates each run, and
// agent_end always fires last, exactly once per Run invocation.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Start     *StartPayload     `json:"start,omitempty"`
	End       *EndPayload       `json:"end,omitempty"`
	Error     *ErrorPayload     `json:"error,omitempty"`
	Turn      *TurnPayload      `json:"turn,omitempty"`
	Text      *TextPayload      `json:"text,omitempty"`
	Thinking  *ThinkingPayload  `json:"thinking,omitempty"`
	Call      *CallPayload      `json:"call,omitempty"`
	Executing *ExecutingPayload `json:"executing,omitempty"`
	Result    *ResultPayload    `json:"result,omitempty"`
}

// StartPayload carries the user message that started the run.
type StartPayload struct {
	Message string `json:"message"`
}

// EndPayload carries the final response text; Response is nil when the run
// ended via error.
type EndPayload struct {
	Response *string `json:"response"`
}

// ErrorPayload carries a fatal run error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// TurnPayload marks the start of one loop turn.
type TurnPayload struct {
	Turn     int `json:"turn"`
	MaxTurns int `json:"max_turns"`
}

// TextPayload carries streamed or completed assistant text.
type TextPayload struct {
	Content string `json:"content"`
}

// ThinkingPayload carries reasoning text split out of the delta stream.
type ThinkingPayload struct {
	Content string `json:"content,omitempty"`
}

// CallPayload announces a tool call requested by the model.
type CallPayload struct {
	Call ToolCall `json:"call"`
}

// ExecutingPayload marks the start of one tool execution.
type ExecutingPayload struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ResultPayload carries the outcome of one tool execution. For tool_result
// events Output holds the tool output and Success its status; for
// tool_error events Error holds the failure message.
type ResultPayload struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Output  string `json:"output,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func newEvent(kind EventKind) Event {
	return Event{Kind: kind, Timestamp: time.Now()}
}

func agentStartEvent(message string) Event {
	e := newEvent(EventAgentStart)
	e.Start = &StartPayload{Message: message}
	return e
}

func agentEndEvent(response *string) Event {
	e := newEvent(EventAgentEnd)
	e.End = &EndPayload{Response: response}
	return e
}

func agentErrorEvent(message string) Event {
	e := newEvent(EventAgentError)
	e.Error = &ErrorPayload{Message: message}
	return e
}

func turnStartEvent(turn, maxTurns int) Event {
	e := newEvent(EventTurnStart)
	e.Turn = &TurnPayload{Turn: turn, MaxTurns: maxTurns}
	return e
}

func textDeltaEvent(content string) Event {
	e := newEvent(EventTextDelta)
	e.Text = &TextPayload{Content: content}
	return e
}

func textCompleteEvent(content string) Event {
	e := newEvent(EventTextComplete)
	e.Text = &TextPayload{Content: content}
	return e
}

func thinkingStartEvent() Event {
	e := newEvent(EventThinkingStart)
	e.Thinking = &ThinkingPayload{}
	return e
}

func thinkingDeltaEvent(content string) Event {
	e := newEvent(EventThinkingDelta)
	e.Thinking = &ThinkingPayload{Content: content}
	return e
}

func thinkingEndEvent() Event {
	e := newEvent(EventThinkingEnd)
	e.Thinking = &ThinkingPayload{}
	return e
}

func toolCallEvent(call ToolCall) Event {
	e := newEvent(EventToolCall)
	e.Call = &CallPayload{Call: call}
	return e
}

func toolExecutingEvent(name string, args map[string]interface{}) Event {
	e := newEvent(EventToolExecuting)
	e.Executing = &ExecutingPayload{Name: name, Arguments: args}
	return e
}

func toolResultEvent(callID, name, output string, success bool) Event {
	e := newEvent(EventToolResult)
	e.Result = &ResultPayload{CallID: callID, Name: name, Output: output, Success: success}
	return e
}

func toolErrorEvent(callID, name, errMsg string) Event {
	e := newEvent(EventToolError)
	e.Result = &ResultPayload{CallID: callID, Name: name, Error: errMsg}
	return e
}
