package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/ledger"
)

// loadYAML loads cfg text over the defaults through a private viper instance.
func loadYAML(t *testing.T, text string) (*Config, error) {
	t.Helper()
	v := viper.New()
	ApplyDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(text)); err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	return LoadFrom(v)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if len(cfg.Debate.Models) != 1 || cfg.Debate.Models[0] != "gpt-5.2" {
		t.Errorf("Debate.Models = %v, want [gpt-5.2]", cfg.Debate.Models)
	}
	if cfg.Debate.MaxRetries != 3 {
		t.Errorf("Debate.MaxRetries = %d, want 3", cfg.Debate.MaxRetries)
	}
	if cfg.Debate.BaseDelay != time.Second {
		t.Errorf("Debate.BaseDelay = %v, want 1s", cfg.Debate.BaseDelay)
	}
	if cfg.Session.Backend != BackendFile {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, BackendFile)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() does not validate: %v", ValidationErrors(errs))
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadYAML(t, "")
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Debate.Temperature != 0.7 || cfg.Debate.MaxTokens != 8000 {
		t.Errorf("Debate = %+v", cfg.Debate)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := loadYAML(t, `
debate:
  models: [gpt-5.2, claude-opus-4-5]
  temperature: 0.2
  base_delay: 250ms
pricing:
  models:
    my-model:
      input: 1.5
      output: 3
session:
  backend: sqlite
  dir: /tmp/adv-sessions
providers:
  openai_compatible:
    xai: http://localhost:9000/v1
`)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if got := strings.Join(cfg.Debate.Models, ","); got != "gpt-5.2,claude-opus-4-5" {
		t.Errorf("Debate.Models = %s", got)
	}
	if cfg.Debate.BaseDelay != 250*time.Millisecond {
		t.Errorf("Debate.BaseDelay = %v, want 250ms", cfg.Debate.BaseDelay)
	}
	if cfg.Pricing.Models["my-model"] != (ledger.Price{Input: 1.5, Output: 3}) {
		t.Errorf("pricing = %+v", cfg.Pricing.Models)
	}
	if cfg.SessionDatabase() != filepath.Join("/tmp/adv-sessions", "sessions.db") {
		t.Errorf("SessionDatabase() = %q", cfg.SessionDatabase())
	}

	rc := cfg.RouterConfig(nil)
	if rc.Compatible["xai"] != "http://localhost:9000/v1" {
		t.Errorf("RouterConfig.Compatible = %v", rc.Compatible)
	}

	cc := cfg.CriticConfig()
	if cc.Temperature == nil || *cc.Temperature != 0.2 || cc.MaxAttempts != 3 {
		t.Errorf("CriticConfig() = %+v", cc)
	}
	if got := cfg.PriceTable().Lookup("my-model"); got.Input != 1.5 {
		t.Errorf("PriceTable lookup = %+v", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := loadYAML(t, `
debate:
  temperature: 5
session:
  backend: postgres
`)
	if err == nil {
		t.Fatal("LoadFrom should reject an invalid config")
	}
	if !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("error %v does not wrap ErrInvalidConfig", err)
	}
	if errors.ExitCode(err) != errors.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", errors.ExitCode(err), errors.ExitConfig)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("want 2 ValidationErrors, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigDir(); got != filepath.Join("/xdg", "adversary") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigFile(); got != filepath.Join("/xdg", "adversary", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}

	cfg := Default()
	if got := cfg.SessionDir(); got != filepath.Join("/xdg", "adversary", "sessions") {
		t.Errorf("SessionDir() = %q", got)
	}
	if got := cfg.ProfilesDir(); got != filepath.Join("/xdg", "adversary", "profiles") {
		t.Errorf("ProfilesDir() = %q", got)
	}
	if got := cfg.CheckpointDir(); got != ".adversary-checkpoints" {
		t.Errorf("CheckpointDir() = %q", got)
	}
}
