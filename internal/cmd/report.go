package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/adversary/internal/debate"
	"github.com/Iron-Ham/adversary/internal/ledger"
	"github.com/Iron-Ham/adversary/internal/profile"
)

// jsonReport is the --json output document.
type jsonReport struct {
	AllAgreed      bool         `json:"all_agreed"`
	Round          int          `json:"round"`
	Models         []string     `json:"models"`
	Focus          *string      `json:"focus"`
	Persona        *string      `json:"persona"`
	PreserveIntent bool         `json:"preserve_intent"`
	Session        *string      `json:"session"`
	Results        []jsonResult `json:"results"`
	Cost           jsonCost     `json:"cost"`
}

type jsonResult struct {
	Model        string  `json:"model"`
	Agreed       bool    `json:"agreed"`
	Response     string  `json:"response"`
	Spec         *string `json:"spec"`
	Error        *string `json:"error"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

type jsonCost struct {
	Total        float64                 `json:"total"`
	InputTokens  int64                   `json:"input_tokens"`
	OutputTokens int64                   `json:"output_tokens"`
	ByModel      map[string]ledger.Usage `json:"by_model"`
}

// nullable maps "" to a JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSONReport(w io.Writer, round *debate.Round, s profile.Settings, sessionID string, costs ledger.Summary) error {
	report := jsonReport{
		AllAgreed:      round.Converged,
		Round:          round.Number,
		Models:         round.Critics,
		Focus:          nullable(s.Focus),
		Persona:        nullable(s.Persona),
		PreserveIntent: s.PreserveIntent,
		Session:        nullable(sessionID),
		Results:        make([]jsonResult, 0, len(round.Responses)),
		Cost: jsonCost{
			Total:        costs.Cost,
			InputTokens:  costs.InputTokens,
			OutputTokens: costs.OutputTokens,
			ByModel:      costs.ByCritic,
		},
	}
	for _, resp := range round.Responses {
		r := jsonResult{
			Model:        resp.Critic,
			Agreed:       resp.Agreed,
			Response:     resp.Text,
			Spec:         nullable(resp.Extracted),
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			Cost:         resp.Cost,
		}
		if resp.Err != nil {
			msg := resp.Err.Error()
			r.Error = &msg
		}
		report.Results = append(report.Results, r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeTextReport(w io.Writer, round *debate.Round) {
	fmt.Fprintf(w, "\n%s\n\n", titleStyle.Render(fmt.Sprintf("=== Round %d Results (Strategy) ===", round.Number)))

	for _, resp := range round.Responses {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("--- %s ---", resp.Critic)))
		switch {
		case resp.Err != nil:
			fmt.Fprintln(w, errorStyle.Render("ERROR: "+resp.Err.Error()))
		case resp.Agreed:
			fmt.Fprintln(w, agreeStyle.Render("[AGREE]"))
		default:
			fmt.Fprintln(w, resp.Text)
		}
		fmt.Fprintln(w)
	}

	if round.Converged {
		fmt.Fprintln(w, agreeStyle.Render("=== ALL MODELS AGREE ==="))
		return
	}
	if agreed := round.Agreed(); len(agreed) > 0 {
		fmt.Fprintf(w, "Agreed: %s\n", strings.Join(agreed, ", "))
	}
	if critiqued := round.Critiqued(); len(critiqued) > 0 {
		fmt.Fprintf(w, "Critiqued: %s\n", strings.Join(critiqued, ", "))
		for _, resp := range round.Responses {
			if resp.OK() && !resp.Agreed {
				fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(resp.Critic+":"), resp.Summary())
			}
		}
	}
}
