// Package aitest provides a scripted completion backend for tests.
package aitest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/adversary/internal/ai"
	"github.com/Iron-Ham/adversary/internal/errors"
)

// Reply is one scripted outcome.
type Reply struct {
	Text             string
	Err              error
	PromptTokens     int64
	CompletionTokens int64
	// Delay holds the reply back, honoring context cancellation.
	Delay time.Duration
}

// Agree is a reply carrying the consensus marker and an optional final text.
func Agree(final string) Reply {
	text := "Everything checks out.\n[AGREE]"
	if final != "" {
		text += "\n[SPEC]\n" + final + "\n[/SPEC]"
	}
	return Reply{Text: text, PromptTokens: 1000, CompletionTokens: 200}
}

// Revise is a critique followed by a revision block.
func Revise(critique, revision string) Reply {
	return Reply{
		Text:             critique + "\n\n[SPEC]\n" + revision + "\n[/SPEC]",
		PromptTokens:     1000,
		CompletionTokens: 500,
	}
}

// Fail is a transport failure from the named provider.
func Fail(provider string) Reply {
	return Reply{Err: errors.NewProviderError(errors.KindTransport, provider, fmt.Errorf("connection reset"))}
}

// Backend replays scripted replies per model. Once a script is exhausted its
// last reply repeats. Unscripted models fail with a transport error.
type Backend struct {
	mu       sync.Mutex
	scripts  map[string][]Reply
	calls    map[string]int
	requests []ai.Request
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		scripts: make(map[string][]Reply),
		calls:   make(map[string]int),
	}
}

// Script sets the replies for model, in call order.
func (b *Backend) Script(model string, replies ...Reply) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[model] = replies
	return b
}

// Complete implements ai.Completer.
func (b *Backend) Complete(ctx context.Context, req ai.Request) (ai.Completion, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	n := b.calls[req.Model]
	b.calls[req.Model] = n + 1
	script := b.scripts[req.Model]
	b.mu.Unlock()

	if len(script) == 0 {
		return ai.Completion{}, errors.NewProviderError(errors.KindTransport, "aitest", fmt.Errorf("no script for %s", req.Model)).
			WithModel(req.Model)
	}
	reply := script[min(n, len(script)-1)]

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ai.Completion{}, ctx.Err()
		case <-timer.C:
		}
	}

	if reply.Err != nil {
		return ai.Completion{}, reply.Err
	}
	return ai.Completion{
		Text:             reply.Text,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
	}, nil
}

// Calls returns how many requests model received.
func (b *Backend) Calls(model string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[model]
}

// Requests returns every request received, in arrival order.
func (b *Backend) Requests() []ai.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ai.Request, len(b.requests))
	copy(out, b.requests)
	return out
}
