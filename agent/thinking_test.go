package agent

import (
	"strings"
	"testing"
)

func runFilter(enabled bool, deltas ...string) []Event {
	ch := make(chan Event, 128)
	f := newThinkingFilter(ch, enabled)
	for _, d := range deltas {
		f.Feed(d)
	}
	f.Flush()
	close(ch)

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func joined(events []Event, kind EventKind) string {
	var sb strings.Builder
	for _, ev := range events {
		if ev.Kind != kind {
			continue
		}
		switch kind {
		case EventTextDelta:
			sb.WriteString(ev.Text.Content)
		case EventThinkingDelta:
			sb.WriteString(ev.Thinking.Content)
		}
	}
	return sb.String()
}

func TestThinkingFilterDisabledPassesThrough(t *testing.T) {
	events := runFilter(false, "```thinking\nsecret\n```\nanswer")
	if got := joined(events, EventTextDelta); got != "```thinking\nsecret\n```\nanswer" {
		t.Fatalf("pass-through text = %q", got)
	}
	for _, ev := range events {
		if ev.Kind == EventThinkingStart || ev.Kind == EventThinkingDelta || ev.Kind == EventThinkingEnd {
			t.Fatalf("disabled filter emitted %s", ev.Kind)
		}
	}
}

func TestThinkingFilterSplitsFence(t *testing.T) {
	events := runFilter(true, "```thinking\nlet me reason\n```\nThe answer is 4.")

	if got := joined(events, EventThinkingDelta); got != "let me reason\n" {
		t.Fatalf("thinking content = %q", got)
	}
	if got := joined(events, EventTextDelta); got != "The answer is 4." {
		t.Fatalf("visible text = %q", got)
	}

	var kinds []EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	if kinds[0] != EventThinkingStart {
		t.Fatalf("first event = %s, want thinking_start", kinds[0])
	}
	sawEnd := false
	for _, k := range kinds {
		if k == EventThinkingEnd {
			sawEnd = true
		}
		if k == EventTextDelta && !sawEnd {
			t.Fatal("text_delta emitted before thinking_end")
		}
	}
	if !sawEnd {
		t.Fatal("no thinking_end emitted")
	}
}

func TestThinkingFilterHandlesSplitMarkers(t *testing.T) {
	// The fence arrives split across several deltas, as real streams do.
	events := runFilter(true, "``", "`think", "ing\nreason", "ing\n``", "`\nanswer")

	if got := joined(events, EventThinkingDelta); got != "reasoning\n" {
		t.Fatalf("thinking content = %q", got)
	}
	if got := joined(events, EventTextDelta); got != "answer" {
		t.Fatalf("visible text = %q", got)
	}
}

func TestThinkingFilterPlainTextUntouched(t *testing.T) {
	events := runFilter(true, "Just a normal ", "answer with `code` in it.")
	if got := joined(events, EventTextDelta); got != "Just a normal answer with `code` in it." {
		t.Fatalf("visible text = %q", got)
	}
}

func TestThinkingFilterClosesUnterminatedFence(t *testing.T) {
	events := runFilter(true, "```thinking\nnever closed")

	if got := joined(events, EventThinkingDelta); got != "never closed" {
		t.Fatalf("thinking content = %q", got)
	}
	last := events[len(events)-1]
	if last.Kind != EventThinkingEnd {
		t.Fatalf("last event = %s, want thinking_end", last.Kind)
	}
}
