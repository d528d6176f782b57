package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config root configuration
type Config struct {
	Review    ReviewConfig    `mapstructure:"review"`
	Approvals ApprovalsConfig `mapstructure:"approvals"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
}

// ReviewConfig reviewer and chunking settings
type ReviewConfig struct {
	Workspace     string  `mapstructure:"workspace"`
	WorkspaceMode string  `mapstructure:"workspace_mode"`
	Model         string  `mapstructure:"model"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxChunkBytes int     `mapstructure:"max_chunk_bytes"`
	MaxChunkFiles int     `mapstructure:"max_chunk_files"`
}

// ApprovalsConfig approval queue settings
type ApprovalsConfig struct {
	RetentionHours int `mapstructure:"retention_hours"`
}

// PolicyConfig fix filtering settings
type PolicyConfig struct {
	Mode           string   `mapstructure:"mode"`
	MinSeverity    string   `mapstructure:"min_severity"`
	DropCategories []string `mapstructure:"drop_categories"`
}

// ProvidersConfig LLM provider settings
type ProvidersConfig struct {
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Claude     ProviderConfig `mapstructure:"claude"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	DeepSeek   ProviderConfig `mapstructure:"deepseek"`
	Ollama     ProviderConfig `mapstructure:"ollama"`
}

// ProviderConfig single provider settings
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// NotifyConfig operator notification settings
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig telegram notifier settings
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  string `mapstructure:"chat_id"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Review: ReviewConfig{
			WorkspaceMode: "default",
			Model:         "anthropic/claude-sonnet-4-5",
			MaxTokens:     8192,
			Temperature:   0.2,
			MaxChunkBytes: 50000,
			MaxChunkFiles: 20,
		},
		Approvals: ApprovalsConfig{
			RetentionHours: 24,
		},
		Policy: PolicyConfig{
			Mode:           "strict",
			MinSeverity:    "low",
			DropCategories: []string{},
		},
		Providers: ProvidersConfig{},
		Notify: NotifyConfig{
			Telegram: TelegramConfig{Enabled: false},
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// ConfigDir returns the gatekeep config directory
func ConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".gatekeep")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads config from file or returns defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("GATEKEEP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Validate checks that the configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	r := &c.Review

	if r.Temperature < 0 || r.Temperature > 2.0 {
		return fmt.Errorf("review.temperature must be between 0 and 2.0, got %f", r.Temperature)
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("review.max_tokens must be > 0, got %d", r.MaxTokens)
	}
	if r.MaxChunkBytes < 0 {
		return fmt.Errorf("review.max_chunk_bytes must not be negative, got %d", r.MaxChunkBytes)
	}
	if r.MaxChunkBytes == 0 {
		r.MaxChunkBytes = 50000
	}
	if r.MaxChunkFiles < 0 {
		return fmt.Errorf("review.max_chunk_files must not be negative, got %d", r.MaxChunkFiles)
	}
	if r.MaxChunkFiles == 0 {
		r.MaxChunkFiles = 20
	}

	mode := strings.TrimSpace(r.WorkspaceMode)
	if mode != "" {
		validModes := map[string]bool{"default": true, "cwd": true, "path": true}
		if !validModes[strings.ToLower(mode)] {
			return fmt.Errorf("review.workspace_mode must be one of: default, cwd, path; got %q", mode)
		}
		if strings.EqualFold(mode, "path") && strings.TrimSpace(r.Workspace) == "" {
			return fmt.Errorf("review.workspace must be non-empty when workspace_mode is \"path\"")
		}
	}

	if c.Approvals.RetentionHours < 0 {
		return fmt.Errorf("approvals.retention_hours must not be negative, got %d", c.Approvals.RetentionHours)
	}
	if c.Approvals.RetentionHours == 0 {
		c.Approvals.RetentionHours = 24
	}

	policyMode := strings.ToLower(strings.TrimSpace(c.Policy.Mode))
	if policyMode == "" {
		c.Policy.Mode = "strict"
	} else {
		validPolicyModes := map[string]bool{"strict": true, "relaxed": true, "off": true}
		if !validPolicyModes[policyMode] {
			return fmt.Errorf("policy.mode must be one of strict, relaxed, off; got %q", c.Policy.Mode)
		}
		c.Policy.Mode = policyMode
	}

	severity := strings.ToLower(strings.TrimSpace(c.Policy.MinSeverity))
	if severity == "" {
		c.Policy.MinSeverity = "low"
	} else {
		validSeverities := map[string]bool{"low": true, "medium": true, "high": true}
		if !validSeverities[severity] {
			return fmt.Errorf("policy.min_severity must be one of low, medium, high; got %q", c.Policy.MinSeverity)
		}
		c.Policy.MinSeverity = severity
	}

	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.Token) == "" {
			return fmt.Errorf("notify.telegram.token is required when notify.telegram.enabled is true")
		}
		if strings.TrimSpace(c.Notify.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when notify.telegram.enabled is true")
		}
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	return nil
}

// WorkspacePath returns the expanded workspace path
func (c *Config) WorkspacePath() string {
	path, err := c.WorkspacePathChecked()
	if err != nil {
		return filepath.Join(ConfigDir(), "workspace")
	}
	return path
}

// WorkspacePathChecked returns the expanded workspace path or an error if invalid.
func (c *Config) WorkspacePathChecked() (string, error) {
	mode := strings.TrimSpace(c.Review.WorkspaceMode)
	if mode == "" || strings.EqualFold(mode, "default") {
		return filepath.Join(ConfigDir(), "workspace"), nil
	}
	if strings.EqualFold(mode, "cwd") {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve cwd: %w", err)
		}
		return wd, nil
	}
	if !strings.EqualFold(mode, "path") {
		return "", fmt.Errorf("unknown workspace_mode: %s", mode)
	}
	if c.Review.Workspace == "" {
		return "", fmt.Errorf("workspace is required when workspace_mode=path")
	}
	if c.Review.Workspace[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory for workspace path: %w", err)
		}
		rest := c.Review.Workspace[1:]
		rest = strings.TrimPrefix(rest, string(filepath.Separator))
		rest = strings.TrimPrefix(rest, "/")
		return filepath.Join(homeDir, rest), nil
	}
	return c.Review.Workspace, nil
}
