// Package agent implements the agentic tool-calling loop.
//
// An Agent turns a single user message into a bounded sequence of LLM calls
// interleaved with tool executions, streaming typed events to the caller as
// it goes. Each turn opens one streaming completion; the model either
// answers in text (terminating the run) or requests tool calls, whose
// results are folded back into the conversation for the next turn. The loop
// terminates on a final text answer, a fatal error, or exhaustion of the
// iteration budget.
//
// # Architecture
//
//   - Agent: owns the conversation state (the ordered message list) and
//     drives the turn loop.
//   - Event: tagged-union event stream consumed by the host (CLI, tests).
//   - llm.Client: the streaming completion adapter; retries live there,
//     below this package.
//   - tools.Registry: name-keyed executable capabilities; tool failures are
//     reported to the model, never escalated to run failures.
//
// # Quick start
//
//	registry := tools.NewRegistry(logger)
//	tools.RegisterBuiltins(registry, ".", nil, logger)
//	a := agent.New(client, registry, agent.Options{
//	    SystemPrompt: prompts.SystemPrompt("coder"),
//	    Model:        "mistralai/devstral-2512:free",
//	})
//
//	for event := range a.Run(ctx, "Read main.go and summarize it") {
//	    switch event.Kind {
//	    case agent.EventTextDelta:
//	        fmt.Print(event.Text.Content)
//	    case agent.EventAgentEnd:
//	        fmt.Println()
//	    }
//	}
package agent
