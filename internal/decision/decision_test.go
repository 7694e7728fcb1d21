package decision_test

import (
	"context"
	"strings"
	"testing"

	"authorfix/internal/decision"
)

func TestAutomaticPolicyAbstains(t *testing.T) {
	d, err := decision.AutomaticPolicy{}.Decide(context.Background(), decision.Request{Kind: decision.ChooseCandidate})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Outcome != decision.Abstain {
		t.Fatalf("Outcome = %q, want abstain", d.Outcome)
	}
}

func TestInteractiveChooseCandidate(t *testing.T) {
	req := decision.Request{
		Kind:      decision.ChooseCandidate,
		ProfileID: 501,
		Candidates: []decision.Candidate{
			{Index: 1, Kind: "account", ID: 9, Label: "jane@example.com", Pass: "email"},
			{Index: 2, Kind: "account", ID: 12, Label: "jane2@example.com", Pass: "email"},
		},
	}
	cases := []struct {
		name  string
		input string
		want  decision.Outcome
		index int
	}{
		{"select", "2\n", decision.Chosen, 2},
		{"skip", "s\n", decision.Abstain, 0},
		{"halt", "q\n", decision.Halt, 0},
		{"out of range", "7\n", decision.Abstain, 0},
		{"garbage", "maybe\n", decision.Abstain, 0},
		{"eof", "", decision.Abstain, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			p := &decision.InteractiveOperatorPolicy{In: strings.NewReader(tc.input), Out: &out}
			d, err := p.Decide(context.Background(), req)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if d.Outcome != tc.want || d.ChosenIndex != tc.index {
				t.Fatalf("got %+v, want outcome=%q index=%d", d, tc.want, tc.index)
			}
		})
	}
}

func TestInteractiveTypeAheadSurvivesAcrossDecisions(t *testing.T) {
	req := decision.Request{
		Kind:      decision.ChooseCandidate,
		ProfileID: 501,
		Candidates: []decision.Candidate{
			{Index: 1, Kind: "account", ID: 9, Label: "jane@example.com", Pass: "email"},
			{Index: 2, Kind: "account", ID: 12, Label: "jane2@example.com", Pass: "email"},
		},
	}
	// Both answers arrive before the first prompt is answered, as with a
	// paste or fast type-ahead spanning two escalations.
	var out strings.Builder
	p := &decision.InteractiveOperatorPolicy{In: strings.NewReader("1\n2\n"), Out: &out}

	d, err := p.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("first Decide failed: %v", err)
	}
	if d.Outcome != decision.Chosen || d.ChosenIndex != 1 {
		t.Fatalf("first decision = %+v, want chosen index 1", d)
	}

	d, err = p.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("second Decide failed: %v", err)
	}
	if d.Outcome != decision.Chosen || d.ChosenIndex != 2 {
		t.Fatalf("second decision = %+v, want chosen index 2", d)
	}
}

func TestInteractiveConfirmStandalone(t *testing.T) {
	var out strings.Builder
	p := &decision.InteractiveOperatorPolicy{In: strings.NewReader("y\n"), Out: &out}
	d, err := p.Decide(context.Background(), decision.Request{Kind: decision.ConfirmStandalone, ProfileID: 501})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Outcome != decision.Chosen {
		t.Fatalf("Outcome = %q, want chosen", d.Outcome)
	}
}

func TestInteractiveSupplySlug(t *testing.T) {
	var out strings.Builder
	p := &decision.InteractiveOperatorPolicy{In: strings.NewReader("jane-doe-2\n"), Out: &out}
	d, err := p.Decide(context.Background(), decision.Request{Kind: decision.SupplySlug, TakenSlug: "cap-jane-doe"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Outcome != decision.Chosen || d.Slug != "jane-doe-2" {
		t.Fatalf("got %+v", d)
	}
	if !strings.Contains(out.String(), "cap-jane-doe") {
		t.Fatalf("prompt missing taken slug: %s", out.String())
	}
}
