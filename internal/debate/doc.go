// Package debate runs review rounds: one artifact version sent to every
// critic of a roster at once.
//
// # Round Lifecycle
//
// RunRound fans the artifact out to one goroutine per critic and waits for
// all of them; there is no partial round and no fan-out timeout, so the
// slowest critic (including its retries) bounds the round. Results are
// reported in roster order regardless of completion order:
//
//   - Converged: at least one critic replied and every critic that replied
//     agreed. An empty or all-failed roster never converges.
//   - Next: the first non-empty revision in roster order, or the input
//     artifact unchanged when no critic offered one.
//
// # Usage
//
//	inv := critic.NewInvoker(router, critic.DefaultConfig())
//	orch := debate.NewOrchestrator(inv, debate.WithPrices(prices))
//
//	round := orch.RunRound(ctx, debate.RoundRequest{
//		Critics:  []string{"gpt-5.2", "claude-opus-4-5"},
//		Artifact: strategy,
//		Number:   1,
//	})
//	if round.Converged { ... }
//
// # Thread Safety
//
// Critics of one round record usage into a fresh round ledger. The
// orchestrator folds it into its session ledger only after the round has
// joined. RunRound may be called again once the previous call returned.
package debate
