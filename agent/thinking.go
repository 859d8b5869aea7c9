package agent

import "strings"

const (
	thinkingOpen  = "```thinking"
	thinkingClose = "```"
)

// thinkingFilter splits a text delta stream into plain text and
// ```thinking fenced reasoning, emitting the corresponding events. When
// disabled it passes deltas through untouched. The filter is a textual
// heuristic layered over the stream; the accumulated response text kept by
// the loop is unaffected.
type thinkingFilter struct {
	ch      chan<- Event
	enabled bool

	inThinking bool
	carry      string
}

func newThinkingFilter(ch chan<- Event, enabled bool) *thinkingFilter {
	return &thinkingFilter{ch: ch, enabled: enabled}
}

// Feed consumes one delta. Markers may be split across deltas, so a
// potential partial marker at the tail is held back until the next Feed or
// Flush resolves it.
func (f *thinkingFilter) Feed(delta string) {
	if !f.enabled {
		if delta != "" {
			f.ch <- textDeltaEvent(delta)
		}
		return
	}

	f.carry += delta
	for {
		marker := thinkingClose
		if !f.inThinking {
			marker = thinkingOpen
		}

		idx := strings.Index(f.carry, marker)
		if idx < 0 {
			// Emit everything except a tail that could start the marker.
			hold := partialSuffix(f.carry, marker)
			f.emit(f.carry[:len(f.carry)-hold])
			f.carry = f.carry[len(f.carry)-hold:]
			return
		}

		f.emit(f.carry[:idx])
		f.carry = f.carry[idx+len(marker):]
		if f.inThinking {
			f.inThinking = false
			f.ch <- thinkingEndEvent()
			// Drop a single newline trailing the closing fence.
			f.carry = strings.TrimPrefix(f.carry, "\n")
		} else {
			f.inThinking = true
			f.ch <- thinkingStartEvent()
			f.carry = strings.TrimPrefix(f.carry, "\n")
		}
	}
}

// Flush releases any held-back tail at end of stream. An unclosed thinking
// fence is closed implicitly.
func (f *thinkingFilter) Flush() {
	if f.carry != "" {
		f.emit(f.carry)
		f.carry = ""
	}
	if f.inThinking {
		f.inThinking = false
		f.ch <- thinkingEndEvent()
	}
}

func (f *thinkingFilter) emit(text string) {
	if text == "" {
		return
	}
	if f.inThinking {
		f.ch <- thinkingDeltaEvent(text)
	} else {
		f.ch <- textDeltaEvent(text)
	}
}

// partialSuffix reports the length of the longest suffix of s that is a
// proper prefix of marker.
func partialSuffix(s, marker string) int {
	max := len(marker) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasPrefix(marker, s[len(s)-n:]) {
			return n
		}
	}
	return 0
}
