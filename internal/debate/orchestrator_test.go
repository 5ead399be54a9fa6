package debate

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/Iron-Ham/adversary/internal/ai/aitest"
	"github.com/Iron-Ham/adversary/internal/critic"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/event"
	"github.com/Iron-Ham/adversary/internal/ledger"
)

func TestMain(m *testing.M) {
	// genai links in opencensus, whose view worker starts at init
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestOrchestrator(backend *aitest.Backend, opts ...Option) *Orchestrator {
	inv := critic.NewInvoker(backend, critic.DefaultConfig(), critic.WithSleep(noSleep))
	return NewOrchestrator(inv, opts...)
}

func critics(r *Round) []string {
	out := make([]string, len(r.Responses))
	for i, resp := range r.Responses {
		out[i] = resp.Critic
	}
	return out
}

func TestRunRound_RosterOrderDespiteCompletionOrder(t *testing.T) {
	slow := aitest.Revise("Slow critique.", "From slow")
	slow.Delay = 50 * time.Millisecond
	backend := aitest.New().
		Script("slow", slow).
		Script("fast", aitest.Revise("Fast critique.", "From fast")).
		Script("medium", aitest.Agree(""))

	roster := []string{"slow", "fast", "medium"}
	round := newTestOrchestrator(backend).RunRound(context.Background(), RoundRequest{
		Critics:  roster,
		Artifact: "V1",
		Number:   1,
	})

	if diff := cmp.Diff(roster, critics(round)); diff != "" {
		t.Errorf("responses not in roster order (-want +got):\n%s", diff)
	}
	if round.Next != "From slow" || round.RevisedBy != "slow" {
		t.Errorf("Next = %q by %q, want the first declared critic's revision", round.Next, round.RevisedBy)
	}
}

func TestRunRound_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		scripts       map[string]aitest.Reply
		roster        []string
		wantConverged bool
		wantNext      string
		wantRevisedBy string
	}{
		{
			name: "first critic agrees without revision, second revises",
			scripts: map[string]aitest.Reply{
				"critic1": aitest.Agree(""),
				"critic2": aitest.Revise("Weak diagnosis.", "Revised V2"),
			},
			roster:        []string{"critic1", "critic2"},
			wantConverged: false,
			wantNext:      "Revised V2",
			wantRevisedBy: "critic2",
		},
		{
			name: "agree plus error converges",
			scripts: map[string]aitest.Reply{
				"A": aitest.Agree(""),
				"B": aitest.Fail("openai"),
			},
			roster:        []string{"A", "B"},
			wantConverged: true,
			wantNext:      "V1",
		},
		{
			name: "agree plus disagree does not converge",
			scripts: map[string]aitest.Reply{
				"A": aitest.Agree(""),
				"B": aitest.Reply{Text: "Too vague."},
			},
			roster:   []string{"A", "B"},
			wantNext: "V1",
		},
		{
			name: "agreeing critic's final text is still the next artifact",
			scripts: map[string]aitest.Reply{
				"A": aitest.Agree("Polished V1"),
				"B": aitest.Agree(""),
			},
			roster:        []string{"A", "B"},
			wantConverged: true,
			wantNext:      "Polished V1",
			wantRevisedBy: "A",
		},
		{
			name: "all errored",
			scripts: map[string]aitest.Reply{
				"A": aitest.Fail("openai"),
				"B": aitest.Fail("anthropic"),
			},
			roster:   []string{"A", "B"},
			wantNext: "V1",
		},
		{
			name:     "empty roster",
			roster:   nil,
			wantNext: "V1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := aitest.New()
			for model, reply := range tt.scripts {
				backend.Script(model, reply)
			}

			round := newTestOrchestrator(backend).RunRound(context.Background(), RoundRequest{
				Critics:  tt.roster,
				Artifact: "V1",
				Number:   3,
			})

			if len(round.Responses) != len(tt.roster) {
				t.Fatalf("got %d responses, want %d", len(round.Responses), len(tt.roster))
			}
			if round.Converged != tt.wantConverged {
				t.Errorf("Converged = %v, want %v", round.Converged, tt.wantConverged)
			}
			if round.Next != tt.wantNext || round.RevisedBy != tt.wantRevisedBy {
				t.Errorf("Next = %q by %q, want %q by %q", round.Next, round.RevisedBy, tt.wantNext, tt.wantRevisedBy)
			}
			if round.Input != "V1" || round.Number != 3 {
				t.Errorf("Input = %q, Number = %d", round.Input, round.Number)
			}
		})
	}
}

func TestRunRound_AllFailedReportsFailure(t *testing.T) {
	backend := aitest.New().Script("A", aitest.Fail("openai")).Script("B", aitest.Fail("openai"))
	round := newTestOrchestrator(backend).RunRound(context.Background(), RoundRequest{
		Critics: []string{"A", "B"}, Artifact: "V1", Number: 2,
	})

	var rfe *errors.RoundFailureError
	if !errors.As(round.Failure(), &rfe) {
		t.Fatalf("Failure() = %v, want RoundFailureError", round.Failure())
	}
	if rfe.Round != 2 || len(rfe.Causes) != 2 {
		t.Errorf("RoundFailureError = %+v", rfe)
	}
	if round.Costs.Cost != 0 {
		t.Errorf("failed critics cost nothing, got %v", round.Costs.Cost)
	}
}

func TestRunRound_PartialFailureIsNotRoundFailure(t *testing.T) {
	backend := aitest.New().Script("A", aitest.Fail("openai")).Script("B", aitest.Agree(""))
	round := newTestOrchestrator(backend).RunRound(context.Background(), RoundRequest{
		Critics: []string{"A", "B"}, Artifact: "V1", Number: 1,
	})
	if round.Failure() != nil {
		t.Errorf("Failure() = %v, want nil", round.Failure())
	}
	if errored := round.Errored(); len(errored) != 1 || errored[0].Critic != "A" {
		t.Errorf("Errored() = %+v", errored)
	}
	if diff := cmp.Diff([]string{"B"}, round.Agreed()); diff != "" {
		t.Errorf("Agreed() mismatch (-want +got):\n%s", diff)
	}
	if len(round.Critiqued()) != 0 {
		t.Errorf("Critiqued() = %v", round.Critiqued())
	}
}

func TestRunRound_WarningsSurface(t *testing.T) {
	backend := aitest.New().Script("A", aitest.Reply{Text: "no markers at all"})
	round := newTestOrchestrator(backend).RunRound(context.Background(), RoundRequest{
		Critics: []string{"A"}, Artifact: "V1", Number: 1,
	})
	warnings := round.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Warnings() = %+v", warnings)
	}
	var mre *errors.MalformedResponseError
	if !errors.As(warnings[0].Warning, &mre) {
		t.Errorf("Warning = %v", warnings[0].Warning)
	}
}

func TestRunRound_LedgerMergedAfterJoin(t *testing.T) {
	backend := aitest.New().
		Script("gpt-5.2", aitest.Reply{Text: "[AGREE]", PromptTokens: 1_000_000}).
		Script("o1", aitest.Reply{Text: "[AGREE]", CompletionTokens: 1_000_000})

	orch := newTestOrchestrator(backend, WithPrices(ledger.NewPriceTable(nil)))

	req := RoundRequest{Critics: []string{"gpt-5.2", "o1"}, Artifact: "V1", Number: 1}
	first := orch.RunRound(context.Background(), req)
	req.Number = 2
	second := orch.RunRound(context.Background(), req)

	// 1.75 for gpt-5.2 input, 60.00 for o1 output
	if !approx(first.Costs.Cost, 61.75) || !approx(second.Costs.Cost, 61.75) {
		t.Errorf("round costs = %v, %v, want 61.75 each", first.Costs.Cost, second.Costs.Cost)
	}
	snap := orch.Ledger().Snapshot()
	if !approx(snap.Cost, 123.5) {
		t.Errorf("session cost = %v, want 123.5", snap.Cost)
	}
	if snap.ByCritic["gpt-5.2"].InputTokens != 2_000_000 {
		t.Errorf("gpt-5.2 subtotal = %+v", snap.ByCritic["gpt-5.2"])
	}

	var sum float64
	for _, u := range snap.ByCritic {
		sum += u.Cost
	}
	if !approx(sum, snap.Cost) {
		t.Errorf("subtotals %v do not sum to total %v", sum, snap.Cost)
	}
}

func TestRunRound_PublishesRoundCompleted(t *testing.T) {
	bus := event.NewBus(nil)
	var got []event.RoundCompletedEvent
	bus.Subscribe(event.TypeRoundCompleted, func(e event.Event) {
		got = append(got, e.(event.RoundCompletedEvent))
	})

	backend := aitest.New().Script("A", aitest.Agree("")).Script("B", aitest.Fail("openai"))
	newTestOrchestrator(backend, WithBus(bus)).RunRound(context.Background(), RoundRequest{
		Critics: []string{"A", "B"}, Artifact: "V1", Number: 4,
	})

	if len(got) != 1 {
		t.Fatalf("expected one round.completed event, got %d", len(got))
	}
	if e := got[0]; e.Round != 4 || !e.Converged || e.Errored != 1 || e.Critics != 2 {
		t.Errorf("event = %+v", e)
	}
}

// barrierInvoker blocks each call until every critic of the round has
// started, so it only returns if the calls run concurrently.
type barrierInvoker struct {
	wg sync.WaitGroup
}

func (b *barrierInvoker) Invoke(ctx context.Context, req critic.Request, costs *ledger.Ledger) critic.Response {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		costs.Add(req.Critic, 10, 10)
		return critic.Response{Critic: req.Critic, Agreed: true, State: critic.Succeeded}
	case <-time.After(5 * time.Second):
		return critic.Response{Critic: req.Critic, Err: errors.New("critics did not run concurrently")}
	}
}

func TestRunRound_DispatchesConcurrently(t *testing.T) {
	roster := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	inv := &barrierInvoker{}
	inv.wg.Add(len(roster))

	round := NewOrchestrator(inv).RunRound(context.Background(), RoundRequest{Critics: roster, Artifact: "V1", Number: 1})

	for _, resp := range round.Responses {
		if resp.Err != nil {
			t.Fatalf("%s: %v", resp.Critic, resp.Err)
		}
	}
	if !round.Converged {
		t.Error("all critics agreed")
	}
	if len(round.Costs.ByCritic) != len(roster) {
		t.Errorf("concurrent ledger writes lost: %d critics recorded", len(round.Costs.ByCritic))
	}
}

func TestRunRound_RosterNotAliased(t *testing.T) {
	roster := []string{"A"}
	backend := aitest.New().Script("A", aitest.Agree(""))
	round := newTestOrchestrator(backend).RunRound(context.Background(), RoundRequest{Critics: roster, Artifact: "V1", Number: 1})
	roster[0] = "mutated"
	if round.Critics[0] != "A" {
		t.Error("Round.Critics should not alias the caller's roster")
	}
}

func TestConverged(t *testing.T) {
	ok := func(agreed bool) critic.Response { return critic.Response{Agreed: agreed} }
	failed := critic.Response{Err: errors.New("x")}

	tests := []struct {
		name string
		in   []critic.Response
		want bool
	}{
		{"empty", nil, false},
		{"all errored", []critic.Response{failed, failed}, false},
		{"single agree", []critic.Response{ok(true)}, true},
		{"agree and error", []critic.Response{ok(true), failed}, true},
		{"agree and disagree", []critic.Response{ok(true), ok(false)}, false},
		{"single disagree", []critic.Response{ok(false)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Converged(tt.in); got != tt.want {
				t.Errorf("Converged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectNext(t *testing.T) {
	responses := []critic.Response{
		{Critic: "a", Extracted: ""},
		{Critic: "b", Err: errors.New("down")},
		{Critic: "c", Extracted: "from c"},
		{Critic: "d", Extracted: "from d"},
	}
	next, by := SelectNext("cur", responses)
	if next != "from c" || by != "c" {
		t.Errorf("SelectNext() = %q, %q", next, by)
	}

	next, by = SelectNext("cur", responses[:2])
	if next != "cur" || by != "" {
		t.Errorf("SelectNext() without revisions = %q, %q", next, by)
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
