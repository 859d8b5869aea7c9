// Package config loads application settings from config.yaml and
// environment variables via viper. Environment variables override file
// values; defaults keep the CLI usable with nothing but an API key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds the full application configuration.
type Settings struct {
	API    APIConfig    `mapstructure:"api"`
	Agent  AgentConfig  `mapstructure:"agent"`
	UI     UIConfig     `mapstructure:"ui"`
	Log    LogConfig    `mapstructure:"log"`
	Memory MemoryConfig `mapstructure:"memory"`
}

// APIConfig configures the chat-completion endpoint.
type APIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Key      string `mapstructure:"key"`
	Model    string `mapstructure:"model"`
	Provider string `mapstructure:"provider"` // "openrouter" (OpenAI-compatible SSE) or a gollm provider name

	MaxRetries     int     `mapstructure:"max_retries"`
	RetryBaseDelay float64 `mapstructure:"retry_base_delay"` // seconds
}

// AgentConfig configures the agentic loop.
type AgentConfig struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	ToolsEnabled  bool   `mapstructure:"tools_enabled"`
	Workspace     string `mapstructure:"workspace"`

	AutoVerify    bool     `mapstructure:"auto_verify"`
	VerifyCommand string   `mapstructure:"verify_command"`
	MutatingTools []string `mapstructure:"mutating_tools"`

	Persona      string `mapstructure:"persona"`
	LoadAgentsMD bool   `mapstructure:"load_agents_md"`
	AgentsMDPath string `mapstructure:"agents_md_path"`

	ParseThinking bool `mapstructure:"parse_thinking"`
}

// UIConfig configures the terminal frontend.
type UIConfig struct {
	ShowWelcome   bool `mapstructure:"show_welcome"`
	ShowTurnCount bool `mapstructure:"show_turn_count"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

// MemoryConfig configures the persistent stores.
type MemoryConfig struct {
	Path        string `mapstructure:"path"`
	HistoryPath string `mapstructure:"history_path"`
}

// Load reads settings from the given config file (optional) and the
// environment. Env vars use the VSCLI_ prefix with underscores, e.g.
// VSCLI_API_KEY; OPENROUTER_API_KEY is honored as a fallback for the key.
func Load(configPath string) (*Settings, error) {
	v := viper.New()

	dataDir := defaultDataDir()

	v.SetDefault("api.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("api.key", "")
	v.SetDefault("api.model", "mistralai/devstral-2512:free")
	v.SetDefault("api.provider", "openrouter")
	v.SetDefault("api.max_retries", 4)
	v.SetDefault("api.retry_base_delay", 2.0)

	v.SetDefault("agent.max_iterations", 10)
	v.SetDefault("agent.tools_enabled", true)
	v.SetDefault("agent.workspace", ".")
	v.SetDefault("agent.auto_verify", false)
	v.SetDefault("agent.verify_command", "")
	v.SetDefault("agent.mutating_tools", []string{"write_file", "edit_file", "create_file", "replace_string_in_file"})
	v.SetDefault("agent.persona", "default")
	v.SetDefault("agent.load_agents_md", true)
	v.SetDefault("agent.agents_md_path", "AGENTS.md")
	v.SetDefault("agent.parse_thinking", false)

	v.SetDefault("ui.show_welcome", true)
	v.SetDefault("ui.show_turn_count", true)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	v.SetDefault("memory.path", filepath.Join(dataDir, "memory.db"))
	v.SetDefault("memory.history_path", filepath.Join(dataDir, "history.db"))

	v.SetEnvPrefix("VSCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(dataDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errorsAs(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if settings.API.Key == "" {
		settings.API.Key = os.Getenv("OPENROUTER_API_KEY")
	}
	if settings.Agent.MaxIterations < 1 {
		settings.Agent.MaxIterations = 1
	}

	return &settings, nil
}

// errorsAs is a local indirection so Load reads linearly.
func errorsAs(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}

// defaultDataDir returns the per-user data directory for the CLI.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vscli"
	}
	return filepath.Join(home, ".vscli")
}
