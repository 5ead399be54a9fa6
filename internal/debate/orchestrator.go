package debate

import (
	"context"

	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/adversary/internal/critic"
	"github.com/Iron-Ham/adversary/internal/event"
	"github.com/Iron-Ham/adversary/internal/ledger"
	"github.com/Iron-Ham/adversary/internal/logging"
)

// Invoker runs one critic. *critic.Invoker implements it.
type Invoker interface {
	Invoke(ctx context.Context, req critic.Request, costs *ledger.Ledger) critic.Response
}

// Orchestrator dispatches rounds and accumulates their cost.
type Orchestrator struct {
	invoker Invoker
	prices  *ledger.PriceTable
	costs   *ledger.Ledger
	bus     *event.Bus
	logger  *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPrices prices round ledgers with table.
func WithPrices(table *ledger.PriceTable) Option {
	return func(o *Orchestrator) { o.prices = table }
}

// WithBus publishes round events on bus.
func WithBus(bus *event.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an Orchestrator around inv.
func NewOrchestrator(inv Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{invoker: inv}
	for _, opt := range opts {
		opt(o)
	}
	o.costs = ledger.New(o.prices)
	o.logger = logging.OrNop(o.logger)
	return o
}

// Ledger returns the cumulative ledger of every round run so far.
func (o *Orchestrator) Ledger() *ledger.Ledger { return o.costs }

// RunRound sends the artifact to every critic concurrently and blocks until
// all of them finished. Critic failures are carried on the responses.
func (o *Orchestrator) RunRound(ctx context.Context, req RoundRequest) *Round {
	log := o.logger.WithRound(req.Number)
	log.Info("round started", "critics", len(req.Critics), "mode", string(req.Mode))

	roundCosts := ledger.New(o.prices)
	critics := append([]string(nil), req.Critics...)

	var responses []critic.Response
	if len(critics) > 0 {
		mapper := iter.Mapper[string, critic.Response]{MaxGoroutines: len(critics)}
		responses = mapper.Map(critics, func(name *string) critic.Response {
			return o.invoker.Invoke(ctx, critic.Request{
				Critic:         *name,
				Artifact:       req.Artifact,
				Round:          req.Number,
				Mode:           req.Mode,
				Focus:          req.Focus,
				Persona:        req.Persona,
				Context:        req.Context,
				PreserveIntent: req.PreserveIntent,
			}, roundCosts)
		})
	}

	// every critic has returned; nothing writes to roundCosts any more
	o.costs.Merge(roundCosts)

	next, revisedBy := SelectNext(req.Artifact, responses)
	round := &Round{
		Number:    req.Number,
		Critics:   critics,
		Responses: responses,
		Converged: Converged(responses),
		Input:     req.Artifact,
		Next:      next,
		RevisedBy: revisedBy,
		Costs:     roundCosts.Snapshot(),
	}

	errored := len(round.Errored())
	if err := round.Failure(); err != nil {
		log.Error("every critic failed", "error", err)
	}
	log.Info("round completed",
		"converged", round.Converged,
		"errored", errored,
		"revised_by", revisedBy,
		"cost", round.Costs.Cost,
	)
	o.bus.Publish(event.NewRoundCompletedEvent(round.Number, round.Converged, errored, len(critics), round.Costs.Cost))
	return round
}
