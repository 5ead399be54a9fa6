package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/adversary/internal/ai"
	"github.com/Iron-Ham/adversary/internal/critic"
	"github.com/Iron-Ham/adversary/internal/ledger"
)

// AppName names the config directory and the environment prefix.
const AppName = "adversary"

// EnvPrefix prefixes environment overrides, e.g. ADVERSARY_DEBATE_MODELS.
const EnvPrefix = "ADVERSARY"

// Session backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config represents the complete adversary configuration
type Config struct {
	Debate    DebateConfig    `mapstructure:"debate"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Session   SessionConfig   `mapstructure:"session"`
	Profiles  ProfilesConfig  `mapstructure:"profiles"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DebateConfig controls how critics are called
type DebateConfig struct {
	// Models is the default critic roster when --models is not given
	Models []string `mapstructure:"models"`
	// Temperature is the sampling temperature sent to every critic (0-2)
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens caps each critic's reply
	MaxTokens int `mapstructure:"max_tokens"`
	// MaxRetries is the number of attempts per critic per round, including the first
	MaxRetries int `mapstructure:"max_retries"`
	// BaseDelay is the first retry delay; it doubles on every further attempt
	BaseDelay time.Duration `mapstructure:"base_delay"`
}

// PricingConfig adds or overrides per-model prices in USD per million tokens
type PricingConfig struct {
	Models map[string]ledger.Price `mapstructure:"models"`
}

// SessionConfig controls session persistence
type SessionConfig struct {
	// Backend is "file" (one JSON file per session) or "sqlite"
	Backend string `mapstructure:"backend"`
	// Dir holds session records, lock files and the SQLite database.
	// Empty means <config dir>/sessions.
	Dir string `mapstructure:"dir"`
	// CheckpointDir receives round-N.md checkpoints.
	// Empty means .adversary-checkpoints in the working directory.
	CheckpointDir string `mapstructure:"checkpoint_dir"`
}

// ProfilesConfig controls where saved profiles live
type ProfilesConfig struct {
	// Dir holds profile YAML files. Empty means <config dir>/profiles.
	Dir string `mapstructure:"dir"`
}

// ProvidersConfig overrides provider endpoints, mostly for proxies and tests
type ProvidersConfig struct {
	OpenAIBaseURL    string `mapstructure:"openai_base_url"`
	AnthropicBaseURL string `mapstructure:"anthropic_base_url"`
	GeminiBaseURL    string `mapstructure:"gemini_base_url"`
	// OpenAICompatible maps a provider name (xai, deepseek, ...) to a base URL
	OpenAICompatible map[string]string `mapstructure:"openai_compatible"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level sets the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir holds adversary.log. Empty means <config dir>/logs.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the size at which the log file is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Debate: DebateConfig{
			Models:      []string{"gpt-5.2"},
			Temperature: critic.DefaultTemperature,
			MaxTokens:   critic.DefaultMaxTokens,
			MaxRetries:  critic.DefaultMaxAttempts,
			BaseDelay:   critic.DefaultBaseDelay,
		},
		Pricing: PricingConfig{
			Models: map[string]ledger.Price{},
		},
		Session: SessionConfig{
			Backend: BackendFile,
		},
		Providers: ProvidersConfig{
			OpenAICompatible: map[string]string{},
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	ApplyDefaults(viper.GetViper())
}

// ApplyDefaults registers default values with v
func ApplyDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("debate.models", defaults.Debate.Models)
	v.SetDefault("debate.temperature", defaults.Debate.Temperature)
	v.SetDefault("debate.max_tokens", defaults.Debate.MaxTokens)
	v.SetDefault("debate.max_retries", defaults.Debate.MaxRetries)
	v.SetDefault("debate.base_delay", defaults.Debate.BaseDelay)

	v.SetDefault("pricing.models", defaults.Pricing.Models)

	v.SetDefault("session.backend", defaults.Session.Backend)
	v.SetDefault("session.dir", defaults.Session.Dir)
	v.SetDefault("session.checkpoint_dir", defaults.Session.CheckpointDir)

	v.SetDefault("profiles.dir", defaults.Profiles.Dir)

	v.SetDefault("providers.openai_base_url", defaults.Providers.OpenAIBaseURL)
	v.SetDefault("providers.anthropic_base_url", defaults.Providers.AnthropicBaseURL)
	v.SetDefault("providers.gemini_base_url", defaults.Providers.GeminiBaseURL)
	v.SetDefault("providers.openai_compatible", defaults.Providers.OpenAICompatible)

	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it.
// Validation failures are returned as ValidationErrors wrapped in a ConfigError.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load over an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, invalid("failed to decode configuration", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, invalid("configuration is invalid", ValidationErrors(errs))
	}
	return &cfg, nil
}

// CriticConfig returns the per-critic call settings.
func (c *Config) CriticConfig() critic.Config {
	temp := c.Debate.Temperature
	return critic.Config{
		MaxAttempts: c.Debate.MaxRetries,
		BaseDelay:   c.Debate.BaseDelay,
		Temperature: &temp,
		MaxTokens:   c.Debate.MaxTokens,
	}
}

// PriceTable returns the built-in prices overlaid with pricing.models.
func (c *Config) PriceTable() *ledger.PriceTable {
	return ledger.NewPriceTable(c.Pricing.Models)
}

// RouterConfig returns the provider router settings for keys.
func (c *Config) RouterConfig(keys *Keys) ai.RouterConfig {
	compatible := make(map[ai.ProviderName]string, len(c.Providers.OpenAICompatible))
	for name, url := range c.Providers.OpenAICompatible {
		compatible[ai.ProviderName(name)] = url
	}
	return ai.RouterConfig{
		Keys:             keys.Values(),
		OpenAIBaseURL:    c.Providers.OpenAIBaseURL,
		AnthropicBaseURL: c.Providers.AnthropicBaseURL,
		GeminiBaseURL:    c.Providers.GeminiBaseURL,
		Compatible:       compatible,
	}
}

// SessionDir returns the directory holding session records.
func (c *Config) SessionDir() string {
	return orDefault(c.Session.Dir, filepath.Join(ConfigDir(), "sessions"))
}

// SessionDatabase returns the SQLite database path used by the sqlite backend.
func (c *Config) SessionDatabase() string {
	return filepath.Join(c.SessionDir(), "sessions.db")
}

// CheckpointDir returns the directory checkpoints are written to.
func (c *Config) CheckpointDir() string {
	return orDefault(c.Session.CheckpointDir, ".adversary-checkpoints")
}

// ProfilesDir returns the directory holding saved profiles.
func (c *Config) ProfilesDir() string {
	return orDefault(c.Profiles.Dir, filepath.Join(ConfigDir(), "profiles"))
}

// LogDir returns the directory holding adversary.log.
func (c *Config) LogDir() string {
	return orDefault(c.Logging.Dir, filepath.Join(ConfigDir(), "logs"))
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidBackends returns the list of valid session backends
func ValidBackends() []string {
	return []string{BackendFile, BackendSQLite}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
