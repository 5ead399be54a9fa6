package ai

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/Iron-Ham/adversary/internal/errors"
)

// RouterConfig carries credentials and endpoint overrides for every provider.
type RouterConfig struct {
	// Keys maps a key name such as OPENAI_API_KEY to its value.
	Keys             map[string]string
	OpenAIBaseURL    string
	AnthropicBaseURL string
	GeminiBaseURL    string
	// Compatible overrides the base URL of OpenAI-compatible providers.
	Compatible map[ProviderName]string
	HTTPClient *http.Client
}

// Router sends each request to the backend serving its model. Backends are
// created on first use and shared by concurrent critics.
type Router struct {
	cfg RouterConfig

	mu       sync.Mutex
	backends map[ProviderName]Backend
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{cfg: cfg, backends: make(map[ProviderName]Backend)}
}

// Check verifies that every model has a provider with a configured key.
func (r *Router) Check(models []string) error {
	var errs []error
	for _, model := range models {
		p, _, err := Resolve(model)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if r.cfg.Keys[p.KeyEnv] == "" {
			errs = append(errs, missingKey(p, model))
		}
	}
	return errors.Join(errs...)
}

// Complete resolves req.Model and forwards the request with the
// provider-local model name.
func (r *Router) Complete(ctx context.Context, req Request) (Completion, error) {
	p, model, err := Resolve(req.Model)
	if err != nil {
		return Completion{}, err
	}
	backend, err := r.backend(p, req.Model)
	if err != nil {
		return Completion{}, err
	}
	req.Model = model
	return backend.Complete(ctx, req)
}

func (r *Router) backend(p Provider, model string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[p.Name]; ok {
		return b, nil
	}

	key := r.cfg.Keys[p.KeyEnv]
	if key == "" {
		return nil, missingKey(p, model)
	}

	var b Backend
	switch {
	case p.Name == ProviderAnthropic:
		b = NewAnthropicBackend(AnthropicConfig{APIKey: key, BaseURL: r.cfg.AnthropicBaseURL, HTTPClient: r.cfg.HTTPClient})
	case p.Name == ProviderGemini:
		b = NewGeminiBackend(GeminiConfig{APIKey: key, BaseURL: r.cfg.GeminiBaseURL, HTTPClient: r.cfg.HTTPClient})
	case p.OpenAICompatible():
		baseURL := p.BaseURL
		if override := r.cfg.Compatible[p.Name]; override != "" {
			baseURL = override
		}
		b = NewOpenAIBackend(OpenAIConfig{Provider: p.Name, APIKey: key, BaseURL: baseURL, HTTPClient: r.cfg.HTTPClient})
	default:
		b = NewOpenAIBackend(OpenAIConfig{APIKey: key, BaseURL: r.cfg.OpenAIBaseURL, HTTPClient: r.cfg.HTTPClient})
	}

	r.backends[p.Name] = b
	return b, nil
}

func missingKey(p Provider, model string) error {
	return errors.NewConfigError(fmt.Sprintf("%s is not set (needed by %s)", p.KeyEnv, model), errors.ErrMissingAPIKey).
		WithField(p.KeyEnv)
}
