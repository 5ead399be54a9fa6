package ledger

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceTable_Lookup(t *testing.T) {
	table := NewPriceTable(map[string]Price{
		"o1":         {Input: 10, Output: 40},
		"local/phi3": {Input: 0, Output: 0},
	})

	tests := []struct {
		critic string
		want   Price
	}{
		{"gpt-5.2", Price{1.75, 14.00}},
		{"gpt-5.2-pro", Price{15, 60}},
		{"claude-opus-4-5", Price{5, 25}},
		{"o1", Price{10, 40}},
		{"local/phi3", Price{0, 0}},
		{"gemini/gemini-2.5-flash", DefaultPrice},
	}

	for _, tt := range tests {
		t.Run(tt.critic, func(t *testing.T) {
			if got := table.Lookup(tt.critic); got != tt.want {
				t.Errorf("Lookup(%q) = %+v, want %+v", tt.critic, got, tt.want)
			}
		})
	}

	var nilTable *PriceTable
	if got := nilTable.Lookup("gpt-5.2"); got != DefaultPrice {
		t.Errorf("nil table Lookup = %+v, want default", got)
	}
}

func TestLedger_Add(t *testing.T) {
	l := New(NewPriceTable(map[string]Price{"criticA": {Input: 1.75, Output: 14.00}}))

	cost := l.Add("criticA", 1_000_000, 0)
	if !approx(cost, 1.75) {
		t.Fatalf("Add() = %v, want 1.75", cost)
	}

	cost = l.Add("criticA", 0, 500_000)
	if !approx(cost, 7.00) {
		t.Fatalf("second Add() = %v, want 7.00", cost)
	}

	snap := l.Snapshot()
	sub := snap.ByCritic["criticA"]
	if !approx(sub.Cost, 8.75) {
		t.Errorf("subtotal cost = %v, want 8.75", sub.Cost)
	}
	if sub.InputTokens != 1_000_000 || sub.OutputTokens != 500_000 {
		t.Errorf("subtotal tokens = %d/%d", sub.InputTokens, sub.OutputTokens)
	}
}

func TestLedger_DefaultPrice(t *testing.T) {
	l := New(NewPriceTable(nil))
	cost := l.Add("xai/grok-3", 2_000_000, 1_000_000)
	want := 2*DefaultPrice.Input + DefaultPrice.Output
	if !approx(cost, want) {
		t.Errorf("Add() = %v, want %v", cost, want)
	}
}

func TestLedger_TotalEqualsSumOfSubtotals(t *testing.T) {
	l := New(NewPriceTable(nil))

	var wg sync.WaitGroup
	critics := []string{"gpt-5.2", "o1", "claude-opus-4-5", "gemini/gemini-2.5-pro"}
	for i := 0; i < 50; i++ {
		for _, c := range critics {
			wg.Add(1)
			go func(c string) {
				defer wg.Done()
				l.Add(c, 1234, 567)
			}(c)
		}
	}
	wg.Wait()

	snap := l.Snapshot()
	var sum Usage
	for _, u := range snap.ByCritic {
		sum.add(u)
	}
	if sum.InputTokens != snap.InputTokens || sum.OutputTokens != snap.OutputTokens {
		t.Errorf("token totals %d/%d != sum %d/%d", snap.InputTokens, snap.OutputTokens, sum.InputTokens, sum.OutputTokens)
	}
	if !approx(sum.Cost, snap.Cost) {
		t.Errorf("total cost %v != sum of subtotals %v", snap.Cost, sum.Cost)
	}
	if snap.InputTokens != int64(50*len(critics)*1234) {
		t.Errorf("lost updates: input tokens = %d", snap.InputTokens)
	}
}

func TestLedger_Merge(t *testing.T) {
	table := NewPriceTable(nil)
	session := New(table)
	session.Add("gpt-5.2", 100, 10)

	round := New(table)
	round.Add("o1", 200, 20)
	round.Add("gpt-5.2", 300, 30)

	before := round.Snapshot()
	session.Merge(round)

	got := session.Snapshot()
	want := map[string]Usage{
		"gpt-5.2": {InputTokens: 400, OutputTokens: 40, Cost: table.Lookup("gpt-5.2").Cost(400, 40)},
		"o1":      {InputTokens: 200, OutputTokens: 20, Cost: table.Lookup("o1").Cost(200, 20)},
	}
	opt := cmp.Comparer(func(a, b float64) bool { return approx(a, b) })
	if diff := cmp.Diff(want, got.ByCritic, opt); diff != "" {
		t.Errorf("merged subtotals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gpt-5.2", "o1"}, got.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(before, round.Snapshot()); diff != "" {
		t.Errorf("Merge must not modify its argument:\n%s", diff)
	}

	session.Merge(nil)
	session.Merge(session)
	if session.Snapshot().InputTokens != 600 {
		t.Error("Merge(nil) and self-merge must be no-ops")
	}
}

func TestSummary_String(t *testing.T) {
	l := New(NewPriceTable(nil))
	l.Add("gpt-5.2", 1_234_567, 8_900)

	out := l.Snapshot().String()
	for _, want := range []string{
		"=== Cost Summary ===",
		"Total tokens: 1,234,567 in / 8,900 out",
		"Total cost: $2.2851",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "By model:") {
		t.Error("single-critic summary should omit the per-model breakdown")
	}

	l.Add("o1", 1000, 1000)
	out = l.Snapshot().String()
	if !strings.Contains(out, "By model:\n  gpt-5.2: $") {
		t.Errorf("multi-critic summary should list critics in first-seen order:\n%s", out)
	}
	if strings.Index(out, "gpt-5.2: $") > strings.Index(out, "o1: $") {
		t.Error("gpt-5.2 should be listed before o1")
	}
}
