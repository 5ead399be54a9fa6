package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/adversary/internal/ai"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "debate.temperature")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Bounds for debate settings
const (
	maxTemperature = 2.0
	maxAttempts    = 10
	maxBaseDelay   = time.Minute
	maxLogSizeMB   = 1000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateDebate()...)
	errs = append(errs, c.validatePricing()...)
	errs = append(errs, c.validateSession()...)
	errs = append(errs, c.validateProviders()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

// validateDebate validates the DebateConfig
func (c *Config) validateDebate() []ValidationError {
	var errs []ValidationError

	if len(c.Debate.Models) == 0 {
		errs = append(errs, ValidationError{
			Field:   "debate.models",
			Value:   c.Debate.Models,
			Message: "at least one model is required",
		})
	}
	for i, model := range c.Debate.Models {
		if _, _, err := ai.Resolve(model); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("debate.models[%d]", i),
				Value:   model,
				Message: "no provider serves this model",
			})
		}
	}

	if c.Debate.Temperature < 0 || c.Debate.Temperature > maxTemperature {
		errs = append(errs, ValidationError{
			Field:   "debate.temperature",
			Value:   c.Debate.Temperature,
			Message: fmt.Sprintf("must be between 0 and %.0f", maxTemperature),
		})
	}
	if c.Debate.MaxTokens <= 0 {
		errs = append(errs, ValidationError{
			Field:   "debate.max_tokens",
			Value:   c.Debate.MaxTokens,
			Message: "must be positive",
		})
	}
	if c.Debate.MaxRetries < 1 || c.Debate.MaxRetries > maxAttempts {
		errs = append(errs, ValidationError{
			Field:   "debate.max_retries",
			Value:   c.Debate.MaxRetries,
			Message: fmt.Sprintf("must be between 1 and %d", maxAttempts),
		})
	}
	if c.Debate.BaseDelay < 0 || c.Debate.BaseDelay > maxBaseDelay {
		errs = append(errs, ValidationError{
			Field:   "debate.base_delay",
			Value:   c.Debate.BaseDelay,
			Message: fmt.Sprintf("must be between 0 and %s", maxBaseDelay),
		})
	}

	return errs
}

// validatePricing validates the PricingConfig
func (c *Config) validatePricing() []ValidationError {
	var errs []ValidationError

	models := make([]string, 0, len(c.Pricing.Models))
	for model := range c.Pricing.Models {
		models = append(models, model)
	}
	slices.Sort(models)

	for _, model := range models {
		price := c.Pricing.Models[model]
		if price.Input < 0 || price.Output < 0 {
			errs = append(errs, ValidationError{
				Field:   "pricing.models." + model,
				Value:   price,
				Message: "prices must be non-negative",
			})
		}
	}
	return errs
}

// validateSession validates the SessionConfig
func (c *Config) validateSession() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidBackends(), c.Session.Backend) {
		errs = append(errs, ValidationError{
			Field:   "session.backend",
			Value:   c.Session.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}
	for field, path := range map[string]string{
		"session.dir":            c.Session.Dir,
		"session.checkpoint_dir": c.Session.CheckpointDir,
		"profiles.dir":           c.Profiles.Dir,
		"logging.dir":            c.Logging.Dir,
	} {
		if strings.ContainsRune(path, '\x00') {
			errs = append(errs, ValidationError{
				Field:   field,
				Value:   path,
				Message: "path contains null byte",
			})
		}
	}
	// map iteration order is random
	slices.SortFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}

// validateProviders validates the ProvidersConfig
func (c *Config) validateProviders() []ValidationError {
	var errs []ValidationError

	check := func(field, raw string) {
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Value:   raw,
				Message: "must be an absolute http(s) URL",
			})
		}
	}
	check("providers.openai_base_url", c.Providers.OpenAIBaseURL)
	check("providers.anthropic_base_url", c.Providers.AnthropicBaseURL)
	check("providers.gemini_base_url", c.Providers.GeminiBaseURL)

	names := make([]string, 0, len(c.Providers.OpenAICompatible))
	for name := range c.Providers.OpenAICompatible {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		field := "providers.openai_compatible." + name
		p, ok := ai.LookupProvider(ai.ProviderName(name))
		if !ok || !p.OpenAICompatible() {
			errs = append(errs, ValidationError{
				Field:   field,
				Value:   name,
				Message: "not an OpenAI-compatible provider",
			})
			continue
		}
		check(field, c.Providers.OpenAICompatible[name])
	}
	return errs
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}
	if c.Logging.MaxSizeMB <= 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}
	return errs
}

func invalid(msg string, cause error) error {
	field := ""
	var verrs ValidationErrors
	if errors.As(cause, &verrs) && len(verrs) > 0 {
		field = verrs[0].Field
	}
	return errors.NewConfigError(msg, errors.Join(errors.ErrInvalidConfig, cause)).WithField(field)
}
