// Package decision abstracts the operator escalation point as a pluggable
// synchronous capability.
//
// The engine escalates when its deterministic rules run out: ambiguous
// candidate sets, slug collisions needing a manually supplied slug, and
// profiles with no candidates that may warrant a standalone binding.
// AutomaticPolicy abstains on everything and is the fail-closed default for
// unattended runs; InteractiveOperatorPolicy prompts on the terminal.
package decision

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RequestKind selects what the engine is asking for.
type RequestKind string

const (
	// ChooseCandidate asks the operator to pick one candidate or abstain.
	ChooseCandidate RequestKind = "choose_candidate"
	// ConfirmStandalone asks whether to synthesize a standalone binding for
	// a profile with no candidates.
	ConfirmStandalone RequestKind = "confirm_standalone"
	// SupplySlug asks for a manually supplied unique slug after a collision.
	SupplySlug RequestKind = "supply_slug"
)

// Candidate is a display row for escalation prompts.
type Candidate struct {
	Index int
	Kind  string
	ID    int64
	Label string
	Pass  string
}

// Request carries everything a provider needs to render an escalation.
type Request struct {
	Kind         RequestKind
	ProfileID    int64
	ProfileLabel string
	Candidates   []Candidate
	// TakenSlug is the colliding slug for SupplySlug requests.
	TakenSlug string
}

// Outcome is the operator's verdict.
type Outcome string

const (
	// Abstain leaves the profile unvalidated with no mutation.
	Abstain Outcome = "abstain"
	// Chosen selects a candidate (or confirms, for yes/no requests).
	Chosen Outcome = "chosen"
	// Halt terminates the entire run immediately.
	Halt Outcome = "halt"
)

// Decision is the result of one escalation.
type Decision struct {
	Outcome Outcome
	// ChosenIndex is the selected candidate index for ChooseCandidate.
	ChosenIndex int
	// Slug is the manually supplied slug for SupplySlug.
	Slug string
}

// Provider resolves escalations the deterministic rules cannot. Decide blocks
// until the operator (or policy) answers; there is no timeout by design.
type Provider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// AutomaticPolicy abstains on every escalation. Safe for unattended runs:
// nothing ambiguous is ever mutated.
type AutomaticPolicy struct{}

// Decide always abstains.
func (AutomaticPolicy) Decide(context.Context, Request) (Decision, error) {
	return Decision{Outcome: Abstain}, nil
}

// InteractiveOperatorPolicy prompts the operator on the supplied streams.
type InteractiveOperatorPolicy struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Decide renders the request and reads one answer: a candidate number, `s`
// to skip (abstain), `q` to halt the run, `y`/`n` for confirmations, or a
// free-text slug when one is requested. Successive calls share one buffered
// reader so type-ahead queued for later escalations is not lost.
func (p *InteractiveOperatorPolicy) Decide(_ context.Context, req Request) (Decision, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	switch req.Kind {
	case ChooseCandidate:
		fmt.Fprintf(p.Out, "\nProfile %d (%s) has %d candidates:\n", req.ProfileID, req.ProfileLabel, len(req.Candidates))
		for _, c := range req.Candidates {
			fmt.Fprintf(p.Out, "  [%d] %s %d: %s (via %s)\n", c.Index, c.Kind, c.ID, c.Label, c.Pass)
		}
		fmt.Fprint(p.Out, "Select candidate number, s to skip, q to halt: ")
	case ConfirmStandalone:
		fmt.Fprintf(p.Out, "\nProfile %d (%s) has no candidates.\n", req.ProfileID, req.ProfileLabel)
		fmt.Fprint(p.Out, "Create a standalone binding? y/n, q to halt: ")
	case SupplySlug:
		fmt.Fprintf(p.Out, "\nSlug %q is already taken (profile %d, %s).\n", req.TakenSlug, req.ProfileID, req.ProfileLabel)
		fmt.Fprint(p.Out, "Enter a unique slug, s to skip, q to halt: ")
	default:
		return Decision{Outcome: Abstain}, fmt.Errorf("unknown request kind %q", req.Kind)
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		// EOF with no input counts as abstention, not an engine failure.
		return Decision{Outcome: Abstain}, nil
	}
	answer := strings.TrimSpace(line)

	switch strings.ToLower(answer) {
	case "q", "quit", "halt":
		return Decision{Outcome: Halt}, nil
	case "", "s", "skip", "n", "no":
		return Decision{Outcome: Abstain}, nil
	}

	switch req.Kind {
	case ChooseCandidate:
		index, convErr := strconv.Atoi(answer)
		if convErr != nil {
			return Decision{Outcome: Abstain}, nil
		}
		for _, c := range req.Candidates {
			if c.Index == index {
				return Decision{Outcome: Chosen, ChosenIndex: index}, nil
			}
		}
		return Decision{Outcome: Abstain}, nil
	case ConfirmStandalone:
		if answer == "y" || strings.EqualFold(answer, "yes") {
			return Decision{Outcome: Chosen}, nil
		}
		return Decision{Outcome: Abstain}, nil
	case SupplySlug:
		return Decision{Outcome: Chosen, Slug: answer}, nil
	}
	return Decision{Outcome: Abstain}, nil
}
