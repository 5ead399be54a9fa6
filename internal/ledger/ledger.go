// Package ledger accounts token usage and dollar cost per critic.
//
// A Ledger is append-only: Add only ever grows the totals, and the totals
// always equal the sum of the per-critic subtotals. The debate orchestrator
// gives each round a fresh Ledger and merges it into the session ledger once
// every critic of the round has returned.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price is the dollar cost per one million tokens.
type Price struct {
	Input  float64 `json:"input" mapstructure:"input"`
	Output float64 `json:"output" mapstructure:"output"`
}

// DefaultPrice applies to critics missing from the price table.
var DefaultPrice = Price{Input: 5.00, Output: 15.00}

// DefaultPrices is the built-in price table.
func DefaultPrices() map[string]Price {
	return map[string]Price{
		"gpt-5.2":         {Input: 1.75, Output: 14.00},
		"gpt-5.2-pro":     {Input: 15.00, Output: 60.00},
		"o1":              {Input: 15.00, Output: 60.00},
		"claude-opus-4-5": {Input: 5.00, Output: 25.00},
	}
}

// PriceTable resolves a critic id to its price.
type PriceTable struct {
	prices   map[string]Price
	fallback Price
}

// NewPriceTable builds a table from the built-in prices with overrides
// applied on top.
func NewPriceTable(overrides map[string]Price) *PriceTable {
	prices := DefaultPrices()
	for model, p := range overrides {
		prices[model] = p
	}
	return &PriceTable{prices: prices, fallback: DefaultPrice}
}

// Lookup returns the price for critic, or the default price.
func (t *PriceTable) Lookup(critic string) Price {
	if t == nil {
		return DefaultPrice
	}
	if p, ok := t.prices[critic]; ok {
		return p
	}
	return t.fallback
}

// Cost computes the dollar cost of a token pair at price p.
func (p Price) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*p.Input + float64(outputTokens)/1_000_000*p.Output
}

// Usage is the accumulated usage of one critic, or of the whole ledger.
type Usage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

func (u *Usage) add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.Cost += o.Cost
}

// Ledger accumulates usage. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	prices *PriceTable
	total  Usage
	by     map[string]*Usage
	order  []string
}

// New creates an empty Ledger priced by table. A nil table prices every
// critic at DefaultPrice.
func New(table *PriceTable) *Ledger {
	return &Ledger{
		prices: table,
		by:     make(map[string]*Usage),
	}
}

// Add records one successful invocation of critic and returns its cost.
func (l *Ledger) Add(critic string, inputTokens, outputTokens int64) float64 {
	cost := l.prices.Lookup(critic).Cost(inputTokens, outputTokens)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(critic, Usage{InputTokens: inputTokens, OutputTokens: outputTokens, Cost: cost})
	return cost
}

// record must be called with l.mu held.
func (l *Ledger) record(critic string, u Usage) {
	l.total.add(u)
	sub, ok := l.by[critic]
	if !ok {
		sub = &Usage{}
		l.by[critic] = sub
		l.order = append(l.order, critic)
	}
	sub.add(u)
}

// Merge folds every subtotal of other into l. other is left unchanged.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil || other == l {
		return
	}
	snap := other.Snapshot()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, critic := range snap.Order {
		l.record(critic, snap.ByCritic[critic])
	}
}

// Summary is a point-in-time copy of a Ledger.
type Summary struct {
	Usage
	ByCritic map[string]Usage `json:"by_model"`
	// Order lists critics in the order they were first recorded.
	Order []string `json:"-"`
}

// Snapshot returns a copy of the ledger's current totals.
func (l *Ledger) Snapshot() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		Usage:    l.total,
		ByCritic: make(map[string]Usage, len(l.by)),
		Order:    append([]string(nil), l.order...),
	}
	for critic, u := range l.by {
		s.ByCritic[critic] = *u
	}
	return s
}

// Total returns the cumulative cost.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total.Cost
}

// String renders the cost summary block printed after a round.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("\n=== Cost Summary ===\n")
	fmt.Fprintf(&b, "Total tokens: %s in / %s out\n", groupDigits(s.InputTokens), groupDigits(s.OutputTokens))
	fmt.Fprintf(&b, "Total cost: $%.4f", s.Cost)

	if len(s.ByCritic) > 1 {
		critics := s.Order
		if len(critics) != len(s.ByCritic) {
			critics = make([]string, 0, len(s.ByCritic))
			for c := range s.ByCritic {
				critics = append(critics, c)
			}
			sort.Strings(critics)
		}
		b.WriteString("\n\nBy model:")
		for _, c := range critics {
			u := s.ByCritic[c]
			fmt.Fprintf(&b, "\n  %s: $%.4f (%s in / %s out)", c, u.Cost, groupDigits(u.InputTokens), groupDigits(u.OutputTokens))
		}
	}
	return b.String()
}

// groupDigits formats n with comma thousands separators.
func groupDigits(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
