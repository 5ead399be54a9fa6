// Package prompt composes the system and user messages sent to each critic.
//
// Personas and focus areas are fixed catalogs keyed by tag; unknown tags fall
// back to a generic fragment so new reviewer roles can be tried without code
// changes. The review template asks for critique or agreement; the press
// template re-asks critics that already agreed to prove they read the whole
// document.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Mode selects the round template.
type Mode string

const (
	// ModeReview asks critics to critique and revise, or agree.
	ModeReview Mode = "review"
	// ModePress asks critics to confirm an earlier agreement after a full re-read.
	ModePress Mode = "press"
)

// Validation errors returned by Compose.
var (
	ErrEmptyArtifact = errors.New("artifact is empty")
	ErrInvalidRound  = errors.New("round must be positive")
	ErrUnknownMode   = errors.New("unknown mode")
)

// Options carries the slots a critic request fills in.
type Options struct {
	Artifact       string
	Round          int
	Mode           Mode
	Focus          string
	Persona        string
	Context        string // pre-rendered block from LoadContext
	PreserveIntent bool
}

// Messages is a composed request.
type Messages struct {
	System string
	User   string
}

// Compose composes the system and user messages for one critic request.
func Compose(opts Options) (Messages, error) {
	if err := validate(opts); err != nil {
		return Messages{}, err
	}

	system := systemPrompt
	if preamble := PersonaPreamble(opts.Persona); preamble != "" {
		system = preamble + "\n\n" + systemPrompt
	}

	var user string
	switch opts.Mode {
	case ModePress:
		user = fmt.Sprintf(pressTemplate, opts.Round, opts.Artifact, opts.Context)
	default:
		user = fmt.Sprintf(reviewTemplate, opts.Round, opts.Artifact, opts.Context, focusBlock(opts))
	}

	return Messages{System: system, User: user}, nil
}

func validate(opts Options) error {
	if strings.TrimSpace(opts.Artifact) == "" {
		return ErrEmptyArtifact
	}
	if opts.Round < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRound, opts.Round)
	}
	switch opts.Mode {
	case "", ModeReview, ModePress:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
}

// focusBlock joins the preserve-intent instructions (first) with the focus
// block.
func focusBlock(opts Options) string {
	focus := FocusSection(opts.Focus)
	if opts.PreserveIntent {
		return preserveIntentPrompt + "\n\n" + focus
	}
	return focus
}

// ContextHeader opens the block built by LoadContext.
const ContextHeader = "## Additional Context\nThe following documents are provided as context:\n\n"

// LoadContext reads each path and renders the additional-context block.
// Unreadable files are reported inline instead of failing the round.
func LoadContext(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	sections := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			sections = append(sections, fmt.Sprintf("### Context: %s\n[Error loading file: %v]", path, err))
			continue
		}
		sections = append(sections, fmt.Sprintf("### Context: %s\n```\n%s\n```", path, string(data)))
	}
	return ContextHeader + strings.Join(sections, "\n\n")
}

const preserveIntentPrompt = `
**PRESERVE STRATEGIC INTENT**
This strategy reflects deliberate choices. Before proposing to remove or substantially change anything:

1. Assume the author had a reason for each element.
2. For every removal or substantial change, you MUST:
   - Quote the exact text you want to change
   - Name the concrete problem it causes ("unnecessary" is not a problem)
   - Compare the harm of keeping it with the benefit of removing it
   - Ask yourself whether it is wrong or merely not how you would write it
3. Separate three kinds of finding:
   - ERRORS: factually wrong, contradictory or logically broken. Fix these.
   - RISKS: unaddressed risks, hidden assumptions, gaps in logic. Flag these.
   - PREFERENCES: different style, structure or approach. Leave these alone.
4. When something is unusual but not broken, ask about it instead of removing it.
5. Your critique should add rigor, not sand off distinctive choices.

Additions are cheap; deletions need a justification.
`

const systemPrompt = `You are a senior strategist taking part in adversarial strategy development built on Richard Rumelt's framework.

You will receive a strategy document with a Diagnosis, a Guiding Policy and Coherent Actions. Critique it rigorously.

## The Framework

**Diagnosis** explains the challenge. It must be specific to the situation, grounded in evidence, clear about which aspects are critical, and clear about why this is the challenge that matters.

**Guiding Policy** is the overall approach. It must be a policy rather than a goal, create leverage, rule some actions out while enabling others, and stay focused.

**Coherent Actions** are the coordinated steps. They must reinforce one another, be sequenced with their dependencies in mind, be specific enough to execute, and serve the guiding policy.

## What to Address

1. Diagnosis quality: is this the real challenge or a symptom, and is it backed by evidence?
2. Policy versus goals: is the guiding policy a policy, and what does it rule out?
3. Action coherence: do the actions reinforce each other around a main effort?
4. Assumptions: what is assumed, which assumptions are high-risk, how can they be tested?
5. Risks: what could make this fail, and is it mitigated?

## Output Format

If you find significant issues:
- Explain each problem clearly
- Apply frameworks such as SCQA, Inherent Simplicity or the Evaporating Cloud where they help
- Write your critique first, then the revised strategy between [SPEC] and [/SPEC] tags

If the strategy is solid and ready to execute:
- Output exactly [AGREE] on its own line
- Then output the final strategy between [SPEC] and [/SPEC] tags

Be rigorous. A good strategy tells any leader exactly which challenge they face, which approach they are taking and which actions come first.`

// reviewTemplate arguments: round, artifact, context block, focus block.
const reviewTemplate = `This is round %[1]d of adversarial strategy development.

Here is the current strategy:

%[2]s

%[3]s
%[4]s

Review this strategy using Rumelt's framework. Either critique and revise it, or say [AGREE] if it's ready for execution.`

// pressTemplate arguments: round, artifact, context block.
const pressTemplate = `This is round %[1]d of adversarial strategy development. You previously indicated agreement with this strategy.

Here is the current strategy:

%[2]s

%[3]s

**IMPORTANT: Confirm your agreement by reviewing the ENTIRE strategy again.**

Before you say [AGREE], you MUST:
1. Confirm that you have read every section
2. Verify that the diagnosis names a real, specific challenge
3. Verify that the guiding policy is a policy and not a goal in disguise
4. Verify that the actions are coherent and reinforce each other
5. List at least three specific elements you checked
6. Name any remaining concern, however minor

If this review turns up issues you missed before, give your critique.

If you still agree after a careful review, output:
1. Your verification: what you checked and why you agree
2. [AGREE] on its own line
3. The final strategy between [SPEC] and [/SPEC] tags`
