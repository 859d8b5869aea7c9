package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atharv20s/vscode-cli/agent"
	"github.com/atharv20s/vscode-cli/cli"
	"github.com/atharv20s/vscode-cli/config"
	"github.com/atharv20s/vscode-cli/history"
	"github.com/atharv20s/vscode-cli/llm"
	"github.com/atharv20s/vscode-cli/logging"
	"github.com/atharv20s/vscode-cli/memory"
	"github.com/atharv20s/vscode-cli/prompts"
	"github.com/atharv20s/vscode-cli/tools"
)

const version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "vscode-cli [message]",
		Short:        "Terminal AI coding agent",
		Long:         "vscode-cli is an interactive AI coding assistant with filesystem, shell, git and memory tools.\nWith no arguments it starts a REPL; with a message it answers once and exits.",
		Args:         cobra.ArbitraryArgs,
		RunE:         runAgent,
		SilenceUsage: true,
	}

	rootCmd.Flags().String("config", "", "config file path")
	rootCmd.Flags().StringP("model", "m", "", "model override")
	rootCmd.Flags().StringP("workspace", "w", "", "workspace directory (default: cwd)")
	rootCmd.Flags().StringP("persona", "p", "", "system prompt persona")
	rootCmd.Flags().Bool("no-tools", false, "disable tool calling (chat only)")
	rootCmd.Flags().Int("max-iterations", 0, "iteration budget override")
	rootCmd.Flags().Bool("plain", false, "plain output, no styling")
	rootCmd.Flags().String("resume", "", "resume a saved session by id")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vscode-cli v%s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "personas",
		Short: "List available personas",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range prompts.Names() {
				fmt.Println(name)
			}
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyFlagOverrides(cmd, cfg)

	if cfg.API.Key == "" {
		return fmt.Errorf("no API key configured: set OPENROUTER_API_KEY or api.key in the config file")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Persistent stores. Either store failing to open degrades the
	// feature, not the session.
	var memStore *memory.Store
	if cfg.Memory.Path != "" {
		memStore, err = memory.Open(cfg.Memory.Path)
		if err != nil {
			logger.Warn("memory store unavailable", zap.Error(err))
			memStore = nil
		} else {
			defer memStore.Close()
		}
	}
	var histStore *history.Store
	if cfg.Memory.HistoryPath != "" {
		histStore, err = history.Open(cfg.Memory.HistoryPath)
		if err != nil {
			logger.Warn("history store unavailable", zap.Error(err))
			histStore = nil
		} else {
			defer histStore.Close()
		}
	}

	registry := tools.NewRegistry(logger)
	if cfg.Agent.ToolsEnabled {
		tools.RegisterBuiltins(registry, cfg.Agent.Workspace, memStore, logger)
	}

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}

	a := agent.New(client, registry, agent.Options{
		SystemPrompt:  buildSystemPrompt(cfg, registry),
		Model:         cfg.API.Model,
		MaxIterations: cfg.Agent.MaxIterations,
		ToolsEnabled:  cfg.Agent.ToolsEnabled,
		ShowTurnCount: cfg.UI.ShowTurnCount,
		AutoVerify:    cfg.Agent.AutoVerify,
		VerifyCommand: cfg.Agent.VerifyCommand,
		MutatingTools: cfg.Agent.MutatingTools,
		ParseThinking: cfg.Agent.ParseThinking,
		Logger:        logger,
	})

	if sessionID, _ := cmd.Flags().GetString("resume"); sessionID != "" {
		if histStore == nil {
			return fmt.Errorf("cannot resume: history store is disabled")
		}
		msgs, err := histStore.Load(sessionID)
		if err != nil {
			return fmt.Errorf("resume session %s: %w", sessionID, err)
		}
		a.SetMessages(msgs)
	}

	plain, _ := cmd.Flags().GetBool("plain")
	app := cli.NewApp(a, registry, cli.AppOptions{
		Renderer:    cli.NewRenderer(terminalWidth(), plain),
		History:     histStore,
		Logger:      logger,
		In:          os.Stdin,
		Out:         os.Stdout,
		Model:       cfg.API.Model,
		Persona:     cfg.Agent.Persona,
		ShowWelcome: cfg.UI.ShowWelcome,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) > 0 {
		return app.RunOnce(ctx, strings.Join(args, " "))
	}
	return app.RunREPL(ctx)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Settings) {
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		cfg.API.Model = m
	}
	if p, _ := cmd.Flags().GetString("persona"); p != "" {
		cfg.Agent.Persona = p
	}
	if n, _ := cmd.Flags().GetInt("max-iterations"); n > 0 {
		cfg.Agent.MaxIterations = n
	}
	if noTools, _ := cmd.Flags().GetBool("no-tools"); noTools {
		cfg.Agent.ToolsEnabled = false
	}
	if w, _ := cmd.Flags().GetString("workspace"); w != "" {
		cfg.Agent.Workspace = w
	} else if cfg.Agent.Workspace == "" {
		cwd, err := os.Getwd()
		if err == nil {
			cfg.Agent.Workspace = cwd
		}
	}
}

// buildClient selects the provider adapter. "openrouter" (and any custom
// base URL) speaks the OpenAI-compatible SSE protocol directly; other
// provider names go through gollm.
func buildClient(cfg *config.Settings, logger *zap.Logger) (*llm.Client, error) {
	retry := llm.DefaultRetryPolicy()
	retry.MaxRetries = cfg.API.MaxRetries
	retry.BaseDelay = time.Duration(cfg.API.RetryBaseDelay * float64(time.Second))

	var adapter llm.ProviderAdapter
	switch cfg.API.Provider {
	case "", "openrouter", "openai":
		name := cfg.API.Provider
		if name == "" {
			name = "openrouter"
		}
		adapter = llm.NewOpenAIAdapter(name, cfg.API.BaseURL, cfg.API.Key,
			llm.WithAdapterLogger(logger))
	default:
		g, err := llm.NewGollmAdapter(cfg.API.Provider, cfg.API.Key,
			llm.WithGollmModel(cfg.API.Model))
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", cfg.API.Provider, err)
		}
		adapter = g
	}

	return llm.NewClient(
		llm.WithProvider(adapter),
		llm.WithRetryPolicy(retry),
		llm.WithLogger(logger),
	), nil
}

func buildSystemPrompt(cfg *config.Settings, registry *tools.Registry) string {
	prompt := prompts.SystemPrompt(cfg.Agent.Persona)
	if cfg.Agent.ToolsEnabled {
		prompt = prompts.WithTools(prompt, registry.Names())
	}
	if cfg.Agent.LoadAgentsMD {
		path := cfg.Agent.AgentsMDPath
		if path == "" {
			path = "AGENTS.md"
		}
		if md := prompts.LoadAgentsMD(path); md != "" {
			prompt = prompts.WithAgentsMD(prompt, md)
		}
	}
	return prompt
}

func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		var n int
		if _, err := fmt.Sscanf(cols, "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return 100
}
