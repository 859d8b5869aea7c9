package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/atharv20s/vscode-cli/agent"
	"github.com/atharv20s/vscode-cli/history"
	"github.com/atharv20s/vscode-cli/tools"
)

// App drives the terminal session: it feeds user input to the agent and
// renders the event stream as it arrives.
type App struct {
	agent    *agent.Agent
	registry *tools.Registry
	renderer *Renderer
	history  *history.Store
	logger   *zap.Logger

	in  io.Reader
	out io.Writer

	model       string
	persona     string
	showWelcome bool
}

// AppOptions configures an App.
type AppOptions struct {
	Renderer    *Renderer
	History     *history.Store // optional session persistence
	Logger      *zap.Logger
	In          io.Reader
	Out         io.Writer
	Model       string
	Persona     string
	ShowWelcome bool
}

// NewApp wires the frontend around an agent.
func NewApp(a *agent.Agent, registry *tools.Registry, opts AppOptions) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = NewRenderer(80, true)
	}
	return &App{
		agent:       a,
		registry:    registry,
		renderer:    renderer,
		history:     opts.History,
		logger:      logger,
		in:          opts.In,
		out:         opts.Out,
		model:       opts.Model,
		persona:     opts.Persona,
		showWelcome: opts.ShowWelcome,
	}
}

// RunOnce processes a single message and exits. Returns an error when the
// run ended via agent_error, so the process exit code reflects failure.
func (a *App) RunOnce(ctx context.Context, message string) error {
	final, runErr := a.consume(a.agent.Run(ctx, message))
	a.saveSession()
	if runErr != "" {
		return fmt.Errorf("%s", runErr)
	}
	if final == nil {
		return fmt.Errorf("no response")
	}
	return nil
}

// RunREPL reads messages until EOF or an exit command.
func (a *App) RunREPL(ctx context.Context) error {
	if a.showWelcome {
		toolCount := 0
		if a.registry != nil {
			toolCount = a.registry.Count()
		}
		fmt.Fprintln(a.out, a.renderer.Welcome(a.model, a.persona, toolCount))
		fmt.Fprintln(a.out)
	}

	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := a.handleCommand(line); done {
				break
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		a.consume(a.agent.Run(ctx, line))
		a.saveSession()
		fmt.Fprintln(a.out)
	}
	return scanner.Err()
}

// consume drains one run's event stream, rendering as it goes. Returns the
// final response (nil on error) and the error message, if any.
func (a *App) consume(events <-chan agent.Event) (*string, string) {
	var final *string
	var runErr string
	streaming := false

	endStreaming := func() {
		if streaming {
			fmt.Fprintln(a.out)
			streaming = false
		}
	}

	for ev := range events {
		switch ev.Kind {
		case agent.EventTurnStart:
			fmt.Fprintln(a.out, a.renderer.TurnStart(ev.Turn.Turn, ev.Turn.MaxTurns))

		case agent.EventTextDelta:
			// Raw deltas keep the stream live; the styled markdown replaces
			// them once the message completes.
			fmt.Fprint(a.out, ev.Text.Content)
			streaming = true

		case agent.EventTextComplete:
			endStreaming()
			fmt.Fprintln(a.out, a.renderer.Markdown(ev.Text.Content))

		case agent.EventThinkingDelta:
			fmt.Fprint(a.out, a.renderer.Thinking(ev.Thinking.Content))
			streaming = true

		case agent.EventThinkingEnd:
			endStreaming()

		case agent.EventToolExecuting:
			endStreaming()
			fmt.Fprintln(a.out, a.renderer.ToolExecuting(ev.Executing.Name, ev.Executing.Arguments))

		case agent.EventToolResult:
			fmt.Fprintln(a.out, a.renderer.ToolResult(ev.Result.Name, ev.Result.Success))

		case agent.EventToolError:
			fmt.Fprintln(a.out, a.renderer.ToolResult(ev.Result.Name, false))

		case agent.EventAgentError:
			endStreaming()
			runErr = ev.Error.Message
			fmt.Fprintln(a.out, a.renderer.Error(runErr))

		case agent.EventAgentEnd:
			endStreaming()
			if ev.End != nil {
				final = ev.End.Response
			}
		}
	}
	return final, runErr
}

func (a *App) handleCommand(line string) (exit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return true

	case "/tools":
		if a.registry == nil {
			fmt.Fprintln(a.out, "tools are disabled")
			return false
		}
		names := a.registry.Names()
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(a.out, "  "+name)
		}

	case "/clear":
		a.agent.SetMessages(nil)
		fmt.Fprintln(a.out, "conversation cleared")

	case "/sessions":
		if a.history == nil {
			fmt.Fprintln(a.out, "history is disabled")
			return false
		}
		sessions, err := a.history.Sessions()
		if err != nil {
			fmt.Fprintln(a.out, a.renderer.Error(err.Error()))
			return false
		}
		for _, s := range sessions {
			fmt.Fprintf(a.out, "  %s  %s  %s\n", s.ID, s.Persona, s.UpdatedAt.Format("2006-01-02 15:04"))
		}

	case "/help":
		fmt.Fprintln(a.out, "commands: /tools /clear /sessions /help /exit")

	default:
		fmt.Fprintf(a.out, "unknown command %q (try /help)\n", fields[0])
	}
	return false
}

// saveSession persists the current conversation when history is enabled.
// Persistence failures are logged, never surfaced to the loop.
func (a *App) saveSession() {
	if a.history == nil {
		return
	}
	err := a.history.Save(a.agent.ID(), a.persona, a.model, a.agent.Messages())
	if err != nil {
		a.logger.Warn("failed to persist session", zap.Error(err))
	}
}
