package debate

import (
	"github.com/Iron-Ham/adversary/internal/critic"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/ledger"
	"github.com/Iron-Ham/adversary/internal/prompt"
)

// RoundRequest describes one round.
type RoundRequest struct {
	Critics        []string
	Artifact       string
	Number         int
	Mode           prompt.Mode
	Focus          string
	Persona        string
	Context        string
	PreserveIntent bool
}

// Round is the immutable outcome of one round.
type Round struct {
	Number  int
	Critics []string
	// Responses holds one entry per critic, in roster order.
	Responses []critic.Response
	Converged bool
	// Input is the artifact the critics reviewed.
	Input string
	// Next is the artifact for the following round.
	Next string
	// RevisedBy names the critic whose revision became Next, if any.
	RevisedBy string
	// Costs is the usage of this round alone.
	Costs ledger.Summary
}

// Agreed lists the critics that replied with agreement, in roster order.
func (r *Round) Agreed() []string {
	var out []string
	for _, resp := range r.Responses {
		if resp.OK() && resp.Agreed {
			out = append(out, resp.Critic)
		}
	}
	return out
}

// Critiqued lists the critics that replied without agreement, in roster order.
func (r *Round) Critiqued() []string {
	var out []string
	for _, resp := range r.Responses {
		if resp.OK() && !resp.Agreed {
			out = append(out, resp.Critic)
		}
	}
	return out
}

// Errored returns the failed responses, in roster order.
func (r *Round) Errored() []critic.Response {
	var out []critic.Response
	for _, resp := range r.Responses {
		if !resp.OK() {
			out = append(out, resp)
		}
	}
	return out
}

// Warnings returns the responses that replied with a warning.
func (r *Round) Warnings() []critic.Response {
	var out []critic.Response
	for _, resp := range r.Responses {
		if resp.OK() && resp.Warning != nil {
			out = append(out, resp)
		}
	}
	return out
}

// Failure returns a *errors.RoundFailureError when every critic of a
// non-empty roster failed, and nil otherwise. The condition is not fatal.
func (r *Round) Failure() error {
	if len(r.Responses) == 0 {
		return nil
	}
	errored := r.Errored()
	if len(errored) != len(r.Responses) {
		return nil
	}
	causes := make(map[string]error, len(errored))
	for _, resp := range errored {
		causes[resp.Critic] = resp.Err
	}
	return &errors.RoundFailureError{Round: r.Number, Causes: causes}
}

// Converged reports whether at least one response succeeded and every
// successful response agreed.
func Converged(responses []critic.Response) bool {
	ok := 0
	for _, resp := range responses {
		if !resp.OK() {
			continue
		}
		if !resp.Agreed {
			return false
		}
		ok++
	}
	return ok > 0
}

// SelectNext returns the first non-empty revision in roster order and the
// critic that offered it, or the current artifact and "" when none did.
func SelectNext(current string, responses []critic.Response) (string, string) {
	for _, resp := range responses {
		if resp.OK() && resp.Extracted != "" {
			return resp.Extracted, resp.Critic
		}
	}
	return current, ""
}
