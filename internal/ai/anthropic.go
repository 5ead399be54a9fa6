package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Iron-Ham/adversary/internal/errors"
)

const (
	// DefaultAnthropicBaseURL is the Messages API root.
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	anthropicTimeout        = 10 * time.Minute
)

// AnthropicBackend calls the Anthropic Messages API.
type AnthropicBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// AnthropicConfig configures an AnthropicBackend.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewAnthropicBackend creates an Anthropic backend.
func NewAnthropicBackend(cfg AnthropicConfig) *AnthropicBackend {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: anthropicTimeout}
	}
	return &AnthropicBackend{apiKey: cfg.APIKey, baseURL: baseURL, httpClient: client}
}

func (b *AnthropicBackend) Name() ProviderName { return ProviderAnthropic }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one Messages API request.
func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System(),
	}
	for _, m := range req.Turns() {
		body.Messages = append(body.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, b.fail(errors.KindTransport, req.Model, fmt.Errorf("failed to encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return Completion{}, b.fail(errors.KindTransport, req.Model, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, b.fail(errors.KindTransport, req.Model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, b.fail(errors.KindTransport, req.Model, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		var apiErr anthropicError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Type + ": " + apiErr.Error.Message
		}
		return Completion{}, b.fail(errors.KindFromStatus(resp.StatusCode), req.Model, errors.New(msg)).
			WithStatusCode(resp.StatusCode)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Completion{}, b.fail(errors.KindTransport, req.Model, fmt.Errorf("failed to decode response: %w", err))
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Completion{}, b.fail(errors.KindTransport, req.Model, errors.ErrEmptyResponse)
	}

	return Completion{
		Text:             text.String(),
		PromptTokens:     decoded.Usage.InputTokens,
		CompletionTokens: decoded.Usage.OutputTokens,
	}, nil
}

func (b *AnthropicBackend) fail(kind errors.Kind, model string, cause error) *errors.ProviderError {
	return errors.NewProviderError(kind, string(ProviderAnthropic), cause).WithModel(model)
}
