package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAIAdapter speaks the OpenAI-compatible chat-completion protocol used
// by OpenRouter and most aggregator endpoints. Streaming responses arrive
// as text/event-stream chunks; tool-call fragments are accumulated by index
// until the finish reason signals the batch is complete.
type OpenAIAdapter struct {
	name        string
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	idleTimeout time.Duration
	logger      *zap.Logger
}

// OpenAIOption configures an OpenAIAdapter.
type OpenAIOption func(*OpenAIAdapter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.httpClient = hc
	}
}

// WithIdleTimeout sets the per-read stall timeout for streaming responses.
func WithIdleTimeout(d time.Duration) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.idleTimeout = d
	}
}

// WithAdapterLogger attaches a structured logger.
func WithAdapterLogger(logger *zap.Logger) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.logger = logger
	}
}

// NewOpenAIAdapter creates an adapter for an OpenAI-compatible endpoint.
// baseURL is the API root, e.g. "https://openrouter.ai/api/v1".
func NewOpenAIAdapter(name, baseURL, apiKey string, opts ...OpenAIOption) *OpenAIAdapter {
	a := &OpenAIAdapter{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{},
		idleTimeout: 60 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string { return a.name }

// --- wire format ---

type wireToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type wireToolCall struct {
	Index    int                  `json:"index,omitempty"`
	ID       string               `json:"id,omitempty"`
	Type     string               `json:"type,omitempty"`
	Function wireToolCallFunction `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireTool struct {
	Type     string         `json:"type"`
	Function ToolDefinition `json:"function"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireDelta struct {
	Content   string         `json:"content,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireChoice struct {
	Delta        wireDelta    `json:"delta"`
	Message      *wireMessage `json:"message,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

type wireChunk struct {
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage,omitempty"`
}

type wireErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildWireRequest(req Request, stream bool) wireRequest {
	wr := wireRequest{
		Model:       req.Model,
		Stream:      stream,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		wm := wireMessage{Role: string(m.Role), ToolCallID: m.ToolCallID}
		if m.Content != "" || len(m.ToolCalls) == 0 {
			content := m.Content
			wm.Content = &content
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireToolCallFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		wr.Messages = append(wr.Messages, wm)
	}
	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{Type: "function", Function: t})
	}
	if len(wr.Tools) > 0 {
		wr.ToolChoice = "auto"
	}
	return wr
}

func (a *OpenAIAdapter) post(ctx context.Context, body wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{Message: "failed to build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{ClientError: ClientError{Message: "request failed", Cause: err}}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		message := strings.TrimSpace(string(raw))
		var eb wireErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			message = eb.Error.Message
		}
		var retryAfter *float64
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := strconv.ParseFloat(ra, 64); perr == nil {
				retryAfter = &secs
			}
		}
		return nil, ErrorFromStatusCode(resp.StatusCode, message, a.name, retryAfter)
	}
	return resp, nil
}

// Complete sends a non-streaming completion request.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := a.post(ctx, buildWireRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body wireChunk
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ClientError{Message: "failed to decode response", Cause: err}
	}
	if len(body.Choices) == 0 {
		return nil, &ClientError{Message: "response contained no choices"}
	}

	choice := body.Choices[0]
	out := &Response{Model: body.Model}
	if body.Usage != nil {
		out.Usage = Usage{
			PromptTokens:     body.Usage.PromptTokens,
			CompletionTokens: body.Usage.CompletionTokens,
			TotalTokens:      body.Usage.TotalTokens,
		}
	}
	if choice.FinishReason != nil {
		out.FinishReason = *choice.FinishReason
	}
	if choice.Message != nil {
		if choice.Message.Content != nil {
			out.Content = *choice.Message.Content
		}
		for _, tc := range choice.Message.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return out, nil
}

// Stream opens a streaming completion and returns the normalized event
// channel. The goroutine that parses the SSE body owns the channel and
// closes it when the turn ends.
func (a *OpenAIAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	resp, err := a.post(ctx, buildWireRequest(req, true))
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		a.parseSSE(ctx, resp.Body, ch)
	}()
	return ch, nil
}

// toolCallAccumulator collects tool-call fragments across SSE chunks.
type toolCallAccumulator struct {
	id   string
	name string
	args strings.Builder
}

// parseSSE reads a text/event-stream body and emits normalized events.
// Termination is three-tier: break on finish_reason (some endpoints never
// send [DONE]), a per-read idle timeout, and the request context.
func (a *OpenAIAdapter) parseSSE(ctx context.Context, body io.Reader, ch chan<- StreamEvent) {
	reader := &timedReader{r: body, timeout: a.idleTimeout}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	calls := make(map[int]*toolCallAccumulator)
	order := []int{}
	var usage *Usage
	finishReason := ""
	sawText := false

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			ch <- StreamEvent{Type: StreamError, Err: &RequestTimeoutError{ClientError: ClientError{Message: "stream cancelled", Cause: ctx.Err()}}}
			return
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk wireChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			a.logger.Debug("skipping unparseable SSE chunk", zap.Error(err))
			continue
		}
		if chunk.Usage != nil {
			usage = &Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			sawText = true
			ch <- StreamEvent{Type: StreamTextDelta, Delta: choice.Delta.Content}
		}

		for _, tc := range choice.Delta.ToolCalls {
			acc, ok := calls[tc.Index]
			if !ok {
				acc = &toolCallAccumulator{}
				calls[tc.Index] = acc
				order = append(order, tc.Index)
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Function.Name != "" {
				acc.name = tc.Function.Name
			}
			acc.args.WriteString(tc.Function.Arguments)
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finishReason = *choice.FinishReason
			break
		}
	}

	if err := scanner.Err(); err != nil {
		if err == errIdleTimeout && (sawText || len(calls) > 0) {
			a.logger.Warn("SSE stream stalled, returning partial response",
				zap.Duration("idle_timeout", a.idleTimeout))
		} else {
			ch <- StreamEvent{Type: StreamError, Err: &StreamFailure{ClientError: ClientError{Message: "stream read failed", Cause: err}}}
			return
		}
	}

	// Tool calls are batched into one event only after the provider has
	// signalled end of turn: the loop must never see a partial batch.
	if len(calls) > 0 {
		batch := make([]ToolCall, 0, len(calls))
		for _, idx := range order {
			acc := calls[idx]
			batch = append(batch, ToolCall{
				ID:        acc.id,
				Name:      acc.name,
				Arguments: acc.args.String(),
			})
		}
		ch <- StreamEvent{Type: StreamToolCalls, ToolCalls: batch}
	}

	ch <- StreamEvent{Type: StreamFinish, FinishReason: finishReason, Usage: usage}
}

// --- SSE idle timeout support ---

var errIdleTimeout = fmt.Errorf("SSE read idle timeout")

// timedReader wraps an io.Reader and applies a per-Read deadline.
type timedReader struct {
	r       io.Reader
	timeout time.Duration
}

func (t *timedReader) Read(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := t.r.Read(p)
		done <- result{n, err}
	}()
	select {
	case res := <-done:
		return res.n, res.err
	case <-time.After(t.timeout):
		return 0, errIdleTimeout
	}
}
