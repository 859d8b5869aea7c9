package llm

import (
	"context"
	"testing"
	"time"
)

// mockAdapter is a scriptable ProviderAdapter.
type mockAdapter struct {
	name        string
	completeErr error
	response    *Response
	events      []StreamEvent
	calls       int
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	m.calls++
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	return m.response, nil
}

func (m *mockAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	m.calls++
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	ch := make(chan StreamEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}
}

func TestClientSingleProviderIsDefault(t *testing.T) {
	adapter := &mockAdapter{name: "openrouter", response: &Response{Content: "hi"}}
	client := NewClient(WithProvider(adapter), WithRetryPolicy(fastRetry()))

	resp, err := client.Complete(context.Background(), Request{Model: "test-model"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hi" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestClientRoutesByProviderField(t *testing.T) {
	a := &mockAdapter{name: "alpha", response: &Response{Content: "from alpha"}}
	b := &mockAdapter{name: "beta", response: &Response{Content: "from beta"}}
	client := NewClient(
		WithProvider(a),
		WithProvider(b),
		WithDefaultProvider("alpha"),
		WithRetryPolicy(fastRetry()),
	)

	resp, err := client.Complete(context.Background(), Request{Provider: "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from beta" {
		t.Errorf("content = %q, want routing to beta", resp.Content)
	}

	resp, err = client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from alpha" {
		t.Errorf("content = %q, want default provider alpha", resp.Content)
	}
}

func TestClientUnknownProvider(t *testing.T) {
	client := NewClient(
		WithProvider(&mockAdapter{name: "alpha"}),
		WithRetryPolicy(fastRetry()),
	)

	_, err := client.Complete(context.Background(), Request{Provider: "missing"})
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("got %T, want *ConfigurationError", err)
	}
}

func TestClientNoProviders(t *testing.T) {
	client := NewClient(WithRetryPolicy(fastRetry()))

	_, err := client.Complete(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error with no providers registered")
	}
}

func TestClientRetriesRetryableCompleteErrors(t *testing.T) {
	adapter := &mockAdapter{
		name: "flaky",
		completeErr: &ServerError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "boom"}, Retryable: true,
		}},
	}
	client := NewClient(WithProvider(adapter), WithRetryPolicy(fastRetry()))

	_, err := client.Complete(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if adapter.calls != 3 { // 1 initial + 2 retries
		t.Errorf("adapter called %d times, want 3", adapter.calls)
	}
}

func TestClientDoesNotRetryAuthErrors(t *testing.T) {
	adapter := &mockAdapter{
		name:        "locked",
		completeErr: &AuthenticationError{ProviderError: ProviderError{ClientError: ClientError{Message: "bad key"}}},
	}
	client := NewClient(WithProvider(adapter), WithRetryPolicy(fastRetry()))

	_, err := client.Complete(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if adapter.calls != 1 {
		t.Errorf("adapter called %d times, want 1", adapter.calls)
	}
}

func TestClientStreamChatDeliversEvents(t *testing.T) {
	adapter := &mockAdapter{
		name: "openrouter",
		events: []StreamEvent{
			{Type: StreamTextDelta, Delta: "hel"},
			{Type: StreamTextDelta, Delta: "lo"},
			{Type: StreamFinish, FinishReason: "stop"},
		},
	}
	client := NewClient(WithProvider(adapter), WithRetryPolicy(fastRetry()))

	stream, err := client.StreamChat(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var text string
	var finished bool
	for ev := range stream {
		switch ev.Type {
		case StreamTextDelta:
			text += ev.Delta
		case StreamFinish:
			finished = true
		}
	}
	if text != "hello" {
		t.Errorf("streamed text = %q", text)
	}
	if !finished {
		t.Error("no finish event delivered")
	}
}

func TestRegisterProviderAfterConstruction(t *testing.T) {
	client := NewClient(WithRetryPolicy(fastRetry()))
	client.RegisterProvider(&mockAdapter{name: "late", response: &Response{Content: "ok"}})

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q", resp.Content)
	}
}
