package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/Iron-Ham/adversary/internal/errors"
)

// Role tags a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// System returns the content of the first system message.
func (r Request) System() string {
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}

// Turns returns the non-system messages in order.
func (r Request) Turns() []Message {
	out := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// Completion is the text and token usage of a successful call.
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// Completer sends completion requests. Failures are *errors.ProviderError.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Backend is a Completer bound to one provider.
type Backend interface {
	Completer
	Name() ProviderName
}

// ProviderName identifies a supported provider.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
	ProviderXAI       ProviderName = "xai"
	ProviderDeepSeek  ProviderName = "deepseek"
	ProviderMistral   ProviderName = "mistral"
	ProviderGroq      ProviderName = "groq"
)

// Provider describes a provider for routing and for the providers listing.
type Provider struct {
	Name        ProviderName
	DisplayName string
	KeyEnv      string
	Models      []string // examples shown in listings
	// BaseURL is the default endpoint of an OpenAI-compatible provider.
	// Empty for providers with their own client.
	BaseURL string
}

// OpenAICompatible reports whether the provider speaks the OpenAI chat API
// at a non-default endpoint.
func (p Provider) OpenAICompatible() bool { return p.BaseURL != "" }

var providers = []Provider{
	{Name: ProviderOpenAI, DisplayName: "OpenAI", KeyEnv: "OPENAI_API_KEY", Models: []string{"gpt-5.2", "gpt-5.2-pro", "o1"}},
	{Name: ProviderAnthropic, DisplayName: "Anthropic", KeyEnv: "ANTHROPIC_API_KEY", Models: []string{"claude-opus-4-5"}},
	{Name: ProviderGemini, DisplayName: "Google", KeyEnv: "GEMINI_API_KEY", Models: []string{"gemini/gemini-2.5-flash", "gemini-2.5-pro"}},
	{Name: ProviderXAI, DisplayName: "xAI", KeyEnv: "XAI_API_KEY", Models: []string{"xai/grok-3"}, BaseURL: "https://api.x.ai/v1"},
	{Name: ProviderDeepSeek, DisplayName: "DeepSeek", KeyEnv: "DEEPSEEK_API_KEY", Models: []string{"deepseek/deepseek-chat"}, BaseURL: "https://api.deepseek.com/v1"},
	{Name: ProviderMistral, DisplayName: "Mistral", KeyEnv: "MISTRAL_API_KEY", Models: []string{"mistral/mistral-large-latest"}, BaseURL: "https://api.mistral.ai/v1"},
	{Name: ProviderGroq, DisplayName: "Groq", KeyEnv: "GROQ_API_KEY", Models: []string{"groq/llama-3.3-70b-versatile"}, BaseURL: "https://api.groq.com/openai/v1"},
}

// Providers returns the supported providers in display order.
func Providers() []Provider {
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// LookupProvider returns the provider with the given name.
func LookupProvider(name ProviderName) (Provider, bool) {
	for _, p := range providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// Resolve maps a critic id to its provider and the model name that provider
// expects. An explicit "provider/" prefix wins and is stripped; otherwise the
// provider is inferred from the model family.
func Resolve(model string) (Provider, string, error) {
	model = strings.TrimSpace(model)
	if prefix, rest, ok := strings.Cut(model, "/"); ok {
		if p, found := LookupProvider(ProviderName(strings.ToLower(prefix))); found && rest != "" {
			return p, rest, nil
		}
		return Provider{}, "", unknownProvider(model)
	}

	name := strings.ToLower(model)
	var provider ProviderName
	switch {
	case strings.HasPrefix(name, "gpt-"),
		strings.HasPrefix(name, "o1"),
		strings.HasPrefix(name, "o3"),
		strings.HasPrefix(name, "o4"):
		provider = ProviderOpenAI
	case strings.HasPrefix(name, "claude-"):
		provider = ProviderAnthropic
	case strings.HasPrefix(name, "gemini"):
		provider = ProviderGemini
	case strings.HasPrefix(name, "grok"):
		provider = ProviderXAI
	case strings.HasPrefix(name, "deepseek"):
		provider = ProviderDeepSeek
	case strings.HasPrefix(name, "mistral"), strings.HasPrefix(name, "codestral"):
		provider = ProviderMistral
	default:
		return Provider{}, "", unknownProvider(model)
	}

	p, _ := LookupProvider(provider)
	return p, model, nil
}

func unknownProvider(model string) error {
	return errors.NewConfigError(fmt.Sprintf("no provider serves model %q", model), errors.ErrUnknownProvider).
		WithField("models")
}
