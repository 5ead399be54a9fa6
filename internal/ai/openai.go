package ai

import (
	"context"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Iron-Ham/adversary/internal/errors"
)

// OpenAIBackend calls the OpenAI chat completions API, or any endpoint that
// speaks it.
type OpenAIBackend struct {
	name       ProviderName
	client     openai.Client
	compatible bool
}

// OpenAIConfig configures an OpenAIBackend.
type OpenAIConfig struct {
	Provider   ProviderName // defaults to ProviderOpenAI
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewOpenAIBackend creates a backend for OpenAI or an OpenAI-compatible
// provider. SDK retries are disabled; the critic invoker owns the retry
// budget.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	name := cfg.Provider
	if name == "" {
		name = ProviderOpenAI
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIBackend{
		name:       name,
		client:     openai.NewClient(opts...),
		compatible: name != ProviderOpenAI,
	}
}

func (b *OpenAIBackend) Name() ProviderName { return b.name }

// Complete sends one chat completion request.
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		// Compatible endpoints still expect the older field name.
		if b.compatible {
			params.MaxTokens = openai.Int(int64(req.MaxTokens))
		} else {
			params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
		}
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, b.classify(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errors.NewProviderError(errors.KindTransport, string(b.name), errors.ErrEmptyResponse).
			WithModel(req.Model)
	}

	return Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (b *OpenAIBackend) classify(model string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return errors.NewProviderError(errors.KindFromStatus(apiErr.StatusCode), string(b.name), err).
			WithModel(model).
			WithStatusCode(apiErr.StatusCode)
	}
	return errors.NewProviderError(errors.KindTransport, string(b.name), err).WithModel(model)
}
