// Package critic performs one review request against one critic, with
// bounded retry and structured parsing of the reply.
package critic

import (
	"context"
	"time"

	"github.com/Iron-Ham/adversary/internal/ai"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/event"
	"github.com/Iron-Ham/adversary/internal/extract"
	"github.com/Iron-Ham/adversary/internal/ledger"
	"github.com/Iron-Ham/adversary/internal/logging"
	"github.com/Iron-Ham/adversary/internal/prompt"
)

// Defaults for the retry budget and sampling settings.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8000
)

// Config tunes an Invoker.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Temperature is nil to use DefaultTemperature; zero is sent as zero.
	Temperature *float64
	MaxTokens   int
}

// DefaultConfig returns the standard retry and sampling settings.
func DefaultConfig() Config {
	temp := DefaultTemperature
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Temperature: &temp,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Request names the critic and fills the prompt slots for one invocation.
type Request struct {
	Critic         string
	Artifact       string
	Round          int
	Mode           prompt.Mode
	Focus          string
	Persona        string
	Context        string
	PreserveIntent bool
}

// Response is the outcome of one invocation. When Err is set, Agreed is
// false, Extracted is empty and no cost was recorded.
type Response struct {
	Critic    string
	Text      string
	Agreed    bool
	Extracted string
	// Warning is set for a usable reply that carried no markers.
	Warning      error
	Err          error
	InputTokens  int64
	OutputTokens int64
	Cost         float64
	Attempts     int
	State        State
}

// OK reports whether the critic produced a reply.
func (r Response) OK() bool { return r.Err == nil }

// Summary returns the critique preceding the revision block, shortened for
// display.
func (r Response) Summary() string {
	return extract.Summary(r.Text, extract.SummaryMaxLen)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Invoker sends review requests to critics.
type Invoker struct {
	client ai.Completer
	cfg    Config
	sleep  SleepFunc
	bus    *event.Bus
	logger *logging.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithSleep replaces the backoff wait.
func WithSleep(fn SleepFunc) Option {
	return func(inv *Invoker) { inv.sleep = fn }
}

// WithBus publishes invocation events on bus.
func WithBus(bus *event.Bus) Option {
	return func(inv *Invoker) { inv.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(inv *Invoker) { inv.logger = logger }
}

// NewInvoker creates an Invoker. Zero fields in cfg take their defaults.
func NewInvoker(client ai.Completer, cfg Config, opts ...Option) *Invoker {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.Temperature == nil {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}

	inv := &Invoker{client: client, cfg: cfg, sleep: contextSleep}
	for _, opt := range opts {
		opt(inv)
	}
	inv.logger = logging.OrNop(inv.logger)
	return inv
}

// Invoke runs one critic to completion. It never returns an error: failures
// are carried on the Response. On success the token usage is added to
// costs, which may be shared by concurrent invocations.
func (inv *Invoker) Invoke(ctx context.Context, req Request, costs *ledger.Ledger) Response {
	log := inv.logger.WithCritic(req.Critic).WithRound(req.Round)

	msgs, err := prompt.Compose(prompt.Options{
		Artifact:       req.Artifact,
		Round:          req.Round,
		Mode:           req.Mode,
		Focus:          req.Focus,
		Persona:        req.Persona,
		Context:        req.Context,
		PreserveIntent: req.PreserveIntent,
	})
	if err != nil {
		log.Error("failed to compose prompt", "error", err)
		return Response{Critic: req.Critic, Err: errors.Wrap(err, "compose prompt"), State: Failed}
	}

	call := ai.Request{
		Model: req.Critic,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: msgs.System},
			{Role: ai.RoleUser, Content: msgs.User},
		},
		Temperature: *inv.cfg.Temperature,
		MaxTokens:   inv.cfg.MaxTokens,
	}

	m := newAttemptMachine(inv.cfg.MaxAttempts, inv.cfg.BaseDelay)
	var completion ai.Completion
	for !m.state.Terminal() {
		switch m.state {
		case NotStarted:
			m.start()
		case Attempting:
			log.Debug("calling critic", "attempt", m.attempt+1)
			out, err := inv.client.Complete(ctx, call)
			if err == nil {
				completion = out
				m.succeed()
				continue
			}

			delay, retry := m.fail(err, retryable(ctx, err))
			if !retry {
				continue
			}
			log.Warn("critic attempt failed; retrying", "attempt", m.attempt+1, "delay", delay, "error", err)
			inv.bus.Publish(event.NewCriticRetryingEvent(req.Critic, m.attempt+1, m.maxAttempts, delay, err))
			if err := inv.sleep(ctx, delay); err != nil {
				m.abort(err)
				continue
			}
			m.advance()
		}
	}

	if m.state == Failed {
		log.Error("critic failed", "attempts", m.attempts(), "error", m.lastErr)
		inv.bus.Publish(event.NewCriticFailedEvent(req.Critic, m.attempts(), m.lastErr))
		return Response{Critic: req.Critic, Err: m.lastErr, Attempts: m.attempts(), State: Failed}
	}

	return inv.parse(req.Critic, completion, m.attempts(), costs, log)
}

func (inv *Invoker) parse(critic string, c ai.Completion, attempts int, costs *ledger.Ledger, log *logging.Logger) Response {
	resp := Response{
		Critic:       critic,
		Text:         c.Text,
		Agreed:       extract.Agreed(c.Text),
		InputTokens:  c.PromptTokens,
		OutputTokens: c.CompletionTokens,
		Attempts:     attempts,
		State:        Succeeded,
	}

	revision, found := extract.Revision(c.Text)
	resp.Extracted = revision
	if !resp.Agreed && !found {
		resp.Warning = &errors.MalformedResponseError{Critic: critic}
		log.Warn("critique has no revision markers")
		inv.bus.Publish(event.NewCriticMalformedEvent(critic))
	}

	if costs != nil {
		resp.Cost = costs.Add(critic, c.PromptTokens, c.CompletionTokens)
	}

	log.Info("critic completed",
		"agreed", resp.Agreed,
		"revised", resp.Extracted != "",
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost", resp.Cost,
	)
	inv.bus.Publish(event.NewCriticCompletedEvent(critic, resp.Agreed, resp.Extracted != "", resp.InputTokens, resp.OutputTokens, resp.Cost))
	return resp
}

// retryable reports whether a failed attempt may be repeated. Configuration
// problems and an interrupted context end the invocation immediately. Typed
// errors carry their own classification; untyped failures are treated as
// transport errors and retried.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.IsConfig(err) {
		return false
	}
	var typed errors.AdversaryError
	if errors.As(err, &typed) {
		return errors.IsRetryable(err)
	}
	return true
}

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
