package config

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/adversary/internal/ledger"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "empty roster",
			mutate: func(c *Config) { c.Debate.Models = nil },
			fields: []string{"debate.models"},
		},
		{
			name:   "unknown model",
			mutate: func(c *Config) { c.Debate.Models = []string{"gpt-5.2", "llama-3"} },
			fields: []string{"debate.models[1]"},
		},
		{
			name:   "temperature out of range",
			mutate: func(c *Config) { c.Debate.Temperature = -0.1 },
			fields: []string{"debate.temperature"},
		},
		{
			name: "attempt budget",
			mutate: func(c *Config) {
				c.Debate.MaxRetries = 0
				c.Debate.MaxTokens = 0
			},
			fields: []string{"debate.max_tokens", "debate.max_retries"},
		},
		{
			name:   "base delay too long",
			mutate: func(c *Config) { c.Debate.BaseDelay = 2 * time.Minute },
			fields: []string{"debate.base_delay"},
		},
		{
			name: "negative price",
			mutate: func(c *Config) {
				c.Pricing.Models = map[string]ledger.Price{"m": {Input: -1}}
			},
			fields: []string{"pricing.models.m"},
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Session.Backend = "redis" },
			fields: []string{"session.backend"},
		},
		{
			name:   "null byte in path",
			mutate: func(c *Config) { c.Session.Dir = "a\x00b" },
			fields: []string{"session.dir"},
		},
		{
			name:   "relative base url",
			mutate: func(c *Config) { c.Providers.OpenAIBaseURL = "localhost:8080" },
			fields: []string{"providers.openai_base_url"},
		},
		{
			name: "compatible map",
			mutate: func(c *Config) {
				c.Providers.OpenAICompatible = map[string]string{
					"anthropic": "http://localhost/v1",
					"groq":      "ftp://example.com",
				}
			},
			fields: []string{"providers.openai_compatible.anthropic", "providers.openai_compatible.groq"},
		},
		{
			name: "logging",
			mutate: func(c *Config) {
				c.Logging.Level = "verbose"
				c.Logging.MaxBackups = -1
			},
			fields: []string{"logging.level", "logging.max_backups"},
		},
		{
			name:   "log level is case-insensitive",
			mutate: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
		{
			name:   "zero temperature",
			mutate: func(c *Config) { c.Debate.Temperature = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var got []string
			for _, e := range cfg.Validate() {
				got = append(got, e.Field)
			}
			if strings.Join(got, " ") != strings.Join(tt.fields, " ") {
				t.Errorf("Validate() fields = %v, want %v", got, tt.fields)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	one := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	if got := one.Error(); got != "a: bad (got: 1)" {
		t.Errorf("single Error() = %q", got)
	}

	two := append(one, ValidationError{Field: "b", Value: "x", Message: "worse"})
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "2. b: worse") {
		t.Errorf("multi Error() = %q", got)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render empty")
	}
}
