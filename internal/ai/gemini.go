package ai

import (
	"context"
	"net/http"
	"sync"

	"google.golang.org/genai"

	"github.com/Iron-Ham/adversary/internal/errors"
)

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	cfg GeminiConfig

	mu     sync.Mutex
	client *genai.Client
}

// GeminiConfig configures a GeminiBackend.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiBackend creates a Gemini backend. The SDK client is created on
// first use.
func NewGeminiBackend(cfg GeminiConfig) *GeminiBackend {
	return &GeminiBackend{cfg: cfg}
}

func (b *GeminiBackend) Name() ProviderName { return ProviderGemini }

func (b *GeminiBackend) getClient(ctx context.Context) (*genai.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return b.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     b.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.cfg.HTTPClient,
	}
	if b.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: b.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	b.client = client
	return client, nil
}

// Complete sends one GenerateContent request.
func (b *GeminiBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return Completion{}, errors.NewProviderError(errors.KindAuth, string(ProviderGemini), err).
			WithModel(req.Model).
			WithMessage("failed to create client")
	}

	turns := req.Turns()
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system := req.System(); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return Completion{}, classifyGemini(req.Model, err)
	}

	text := resp.Text()
	if text == "" {
		return Completion{}, errors.NewProviderError(errors.KindTransport, string(ProviderGemini), errors.ErrEmptyResponse).
			WithModel(req.Model)
	}

	out := Completion{Text: text}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func classifyGemini(model string, err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	pe := errors.NewProviderError(errors.KindFromStatus(code), string(ProviderGemini), err).WithModel(model)
	if code != 0 {
		pe = pe.WithStatusCode(code)
	}
	return pe
}
