// Package config loads and watches the runtime configuration. Values come
// from the JSON config file with environment variables (and .env) taking
// precedence, so deployments can override any key without editing files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/quorumtrade/quorum/internal/provider"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	CacheDir string `json:"cache_dir"`
	DBPath   string `json:"db_path"`

	ServerAddr string `json:"server_addr"`

	// AI model API keys
	OpenAIAPIKey    string `json:"openai_api_key"`
	DeepSeekAPIKey  string `json:"deepseek_api_key"`
	AnthropicAPIKey string `json:"anthropic_api_key"`
	GeminiAPIKey    string `json:"gemini_api_key"`

	// OpenAI-compatible endpoint overrides, keyed by provider.
	BaseURLs map[string]string `json:"base_urls,omitempty"`

	// Local agent binaries, keyed by provider. Use {model} as the model
	// placeholder in the argv.
	CLICommands map[string][]string `json:"cli_commands,omitempty"`

	DefaultRounds    int    `json:"default_rounds"`
	DefaultMaxTokens int    `json:"default_max_tokens"`
	ResearchTier     string `json:"research_tier"`
	CacheEnabled     bool   `json:"cache_enabled"`

	// Research and export collaborators
	SearchEndpoint   string `json:"search_endpoint"`
	TrainingEndpoint string `json:"training_endpoint"`
	FinnhubAPIKey    string `json:"finnhub_api_key"`
	RedditUserAgent  string `json:"reddit_user_agent"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		DataDir:  filepath.Join(root, "data"),
		CacheDir: filepath.Join(root, "data", "cache"),
		DBPath:   filepath.Join(root, "data", "quorum.db"),

		ServerAddr: ":8080",

		DefaultRounds:    2,
		DefaultMaxTokens: 4096,
		ResearchTier:     "basic",
		CacheEnabled:     true,

		RedditUserAgent: "Quorum/1.0",
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("QUORUM_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("QUORUM_CACHE_DIR"); val != "" {
		c.CacheDir = val
	}
	if val := os.Getenv("QUORUM_DB_PATH"); val != "" {
		c.DBPath = val
	}
	if val := os.Getenv("QUORUM_SERVER_ADDR"); val != "" {
		c.ServerAddr = val
	}

	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("ANTHROPIC_API_KEY"); val != "" {
		c.AnthropicAPIKey = val
	}
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		c.GeminiAPIKey = val
	}

	if val := os.Getenv("QUORUM_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DefaultRounds = v
		}
	}
	if val := os.Getenv("QUORUM_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DefaultMaxTokens = v
		}
	}
	if val := os.Getenv("QUORUM_RESEARCH_TIER"); val != "" {
		c.ResearchTier = val
	}
	if val := os.Getenv("QUORUM_CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}

	if val := os.Getenv("QUORUM_SEARCH_ENDPOINT"); val != "" {
		c.SearchEndpoint = val
	}
	if val := os.Getenv("QUORUM_TRAINING_ENDPOINT"); val != "" {
		c.TrainingEndpoint = val
	}
	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
	if val := os.Getenv("REDDIT_USER_AGENT"); val != "" {
		c.RedditUserAgent = val
	}
}

func (c *Config) Validate() error {
	if c.DefaultRounds < 1 {
		return fmt.Errorf("default_rounds must be at least 1")
	}
	if c.DefaultMaxTokens < 0 {
		return fmt.Errorf("default_max_tokens must not be negative")
	}
	switch c.ResearchTier {
	case "", "none", "basic", "deep":
	default:
		return fmt.Errorf("research_tier must be none, basic, or deep")
	}
	return nil
}

// ProviderSettings maps the config to the provider layer's input.
func (c *Config) ProviderSettings() provider.Settings {
	keys := map[string]string{}
	for name, key := range map[string]string{
		"openai":    c.OpenAIAPIKey,
		"deepseek":  c.DeepSeekAPIKey,
		"anthropic": c.AnthropicAPIKey,
		"gemini":    c.GeminiAPIKey,
	} {
		if key != "" {
			keys[name] = key
		}
	}

	return provider.Settings{
		APIKeys:          keys,
		BaseURLs:         c.BaseURLs,
		CLICommands:      c.CLICommands,
		DefaultMaxTokens: c.DefaultMaxTokens,
	}
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.CacheDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
