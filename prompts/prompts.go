// Package prompts holds the persona system prompts and custom-instruction
// loading.
package prompts

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// personas maps persona names to their system prompts.
var personas = map[string]string{
	"default": `You are a helpful AI assistant. Be concise, accurate, and helpful.
- Answer directly without unnecessary preamble
- Use examples when they clarify
- Acknowledge when you don't know something`,

	"coder": `You are an expert programming assistant specializing in Go, Python, and system design.
- Write clean, idiomatic code
- Explain trade-offs when they matter
- Prefer small, reviewable changes
- Point out bugs and edge cases you notice`,

	"teacher": `You are a patient and thorough teacher who explains concepts clearly.
- Build from fundamentals
- Use analogies and concrete examples
- Check understanding before moving on
- Adapt explanations to the learner's level`,

	"analyst": `You are a data analyst and researcher who provides thorough analysis.
- Support claims with evidence
- Quantify where possible
- Acknowledge uncertainty and limitations`,

	"terminal": `You are a terminal and command-line expert.
- Give the exact command first, explanation second
- Prefer portable POSIX constructs
- Warn about destructive commands
- Include error handling in scripts`,

	"concise": `You are an extremely concise assistant.
- One-line answers where possible
- Bullet points over paragraphs
- No filler, no restating the question`,
}

// Names returns the available persona names.
func Names() []string {
	names := make([]string, 0, len(personas))
	for name := range personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SystemPrompt returns the system prompt for a persona, falling back to the
// default persona for unknown names.
func SystemPrompt(persona string) string {
	if p, ok := personas[persona]; ok {
		return p
	}
	return personas["default"]
}

// WithTools appends the tool preamble listing available tool names.
func WithTools(systemPrompt string, toolNames []string) string {
	if len(toolNames) == 0 {
		return systemPrompt
	}
	return systemPrompt + fmt.Sprintf(
		"\n\nYou have access to the following tools: %s. Use them when needed to help answer questions.",
		strings.Join(toolNames, ", "),
	)
}

// LoadAgentsMD reads project-level custom instructions from an AGENTS.md
// file. A missing file is not an error; it just yields no instructions.
func LoadAgentsMD(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return ""
	}
	return content
}

// WithAgentsMD appends custom instructions to a system prompt.
func WithAgentsMD(systemPrompt, agentsMD string) string {
	if agentsMD == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\n## Custom Instructions from AGENTS.md:\n" + agentsMD
}
