package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"authorfix/internal/decision"
	"authorfix/internal/identity"
	"authorfix/internal/logging"
	"authorfix/internal/match"
	"authorfix/internal/repair"
	"authorfix/internal/store"
)

// Resolution is the policy's verdict for one profile. Binding is populated
// for AlreadyConsistent and Resolved; Candidates carries the matcher output
// for audit on the other outcomes.
type Resolution struct {
	Class      Classification
	Binding    repair.Binding
	Candidates match.Result
}

// Policy applies the deterministic tie-break rules and escalates the rest.
type Policy struct {
	repo            store.Repository
	matcher         *match.Matcher
	provider        decision.Provider
	logger          *slog.Logger
	prefix          string
	allowStandalone bool
}

func NewPolicy(repo store.Repository, matcher *match.Matcher, provider decision.Provider, logger *slog.Logger, slugPrefix string, allowStandalone bool) *Policy {
	return &Policy{
		repo:            repo,
		matcher:         matcher,
		provider:        provider,
		logger:          logging.NewComponentLogger(logger, "resolve"),
		prefix:          slugPrefix,
		allowStandalone: allowStandalone,
	}
}

// Resolve matches, disambiguates, and classifies one profile. It never
// mutates anything; the returned binding feeds the planner. A group already
// linked by relationship takes priority over matched group candidates.
func (p *Policy) Resolve(ctx context.Context, profile *identity.AuthorProfile) (Resolution, error) {
	rels, err := p.repo.ListRelationshipsForProfile(ctx, profile.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("list relationships: %w", err)
	}
	var current *identity.DisplayGroup
	if len(rels) > 0 {
		current, err = p.repo.FindDisplayGroupByID(ctx, rels[0].GroupID)
		if err != nil {
			return Resolution{}, fmt.Errorf("find linked group: %w", err)
		}
	}
	desc := ""
	if current != nil {
		desc = current.Description
	}

	res, err := p.matcher.Match(ctx, profile, desc)
	if err != nil {
		return Resolution{}, fmt.Errorf("match candidates: %w", err)
	}

	account, outcome, err := p.chooseAccount(ctx, profile, res)
	if err != nil {
		return Resolution{}, err
	}
	if outcome == decision.Abstain && ambiguousWithin(res.Accounts) {
		p.logger.Info("ambiguous account candidates",
			logging.Int64("profile_id", profile.ID),
			logging.Int("candidates", len(res.Accounts)),
		)
		return Resolution{Class: Ambiguous, Candidates: res}, nil
	}

	group := current
	if group == nil {
		chosen, groupOutcome, err := p.chooseGroup(ctx, profile, res)
		if err != nil {
			return Resolution{}, err
		}
		if groupOutcome == decision.Abstain && ambiguousWithin(res.Groups) {
			return Resolution{Class: Ambiguous, Candidates: res}, nil
		}
		group = chosen
	}

	if group == nil && account == nil && res.Empty() {
		return p.resolveStandalone(ctx, profile, res)
	}
	if group == nil {
		// Candidate account but no group anywhere: the group must be
		// synthesized, which is always operator-gated.
		confirmed, err := p.confirmStandalone(ctx, profile)
		if err != nil {
			return Resolution{}, err
		}
		if !confirmed {
			return Resolution{Class: NotFound, Candidates: res}, nil
		}
	}

	binding := repair.Binding{Account: account, Profile: profile, Group: group}

	mismatches := 1
	linked := false
	if group != nil {
		mismatches = len(repair.Parity(binding, p.prefix))
		linked = len(rels) == 1 && rels[0].GroupID == group.ID
	}

	chosen := match.Result{}
	if account != nil {
		chosen.Accounts = []match.Candidate{{Account: account}}
	}
	if group != nil {
		chosen.Groups = []match.Candidate{{Group: group}}
	}
	class := Classify(chosen, mismatches, linked)
	if class == NotFound {
		// The standalone path was confirmed above; synthesis is a repair.
		class = Resolved
	}

	return Resolution{Class: class, Binding: binding, Candidates: res}, nil
}

// chooseAccount picks one account candidate, escalating on ties. The second
// return is Abstain when the operator declined an escalation.
func (p *Policy) chooseAccount(ctx context.Context, profile *identity.AuthorProfile, res match.Result) (*identity.Account, decision.Outcome, error) {
	if len(res.Accounts) == 0 {
		return nil, decision.Chosen, nil
	}
	if !ambiguousWithin(res.Accounts) {
		return res.Accounts[0].Account, decision.Chosen, nil
	}

	d, err := p.provider.Decide(ctx, decision.Request{
		Kind:         decision.ChooseCandidate,
		ProfileID:    profile.ID,
		ProfileLabel: profileLabel(profile),
		Candidates:   accountRows(res.Accounts),
	})
	if err != nil {
		return nil, decision.Abstain, fmt.Errorf("account escalation: %w", err)
	}
	switch d.Outcome {
	case decision.Halt:
		return nil, decision.Halt, identity.ErrOperatorHalt
	case decision.Chosen:
		if d.ChosenIndex >= 0 && d.ChosenIndex < len(res.Accounts) {
			return res.Accounts[d.ChosenIndex].Account, decision.Chosen, nil
		}
	}
	return nil, decision.Abstain, nil
}

// chooseGroup mirrors chooseAccount but also escalates single fuzzy-pass
// hits, which are never applied automatically.
func (p *Policy) chooseGroup(ctx context.Context, profile *identity.AuthorProfile, res match.Result) (*identity.DisplayGroup, decision.Outcome, error) {
	if len(res.Groups) == 0 {
		return nil, decision.Chosen, nil
	}
	if !ambiguousWithin(res.Groups) && res.Groups[0].Pass.AutoApplicable() {
		return res.Groups[0].Group, decision.Chosen, nil
	}

	d, err := p.provider.Decide(ctx, decision.Request{
		Kind:         decision.ChooseCandidate,
		ProfileID:    profile.ID,
		ProfileLabel: profileLabel(profile),
		Candidates:   groupRows(res.Groups),
	})
	if err != nil {
		return nil, decision.Abstain, fmt.Errorf("group escalation: %w", err)
	}
	switch d.Outcome {
	case decision.Halt:
		return nil, decision.Halt, identity.ErrOperatorHalt
	case decision.Chosen:
		if d.ChosenIndex >= 0 && d.ChosenIndex < len(res.Groups) {
			return res.Groups[d.ChosenIndex].Group, decision.Chosen, nil
		}
	}
	return nil, decision.Abstain, nil
}

func (p *Policy) resolveStandalone(ctx context.Context, profile *identity.AuthorProfile, res match.Result) (Resolution, error) {
	confirmed, err := p.confirmStandalone(ctx, profile)
	if err != nil {
		return Resolution{}, err
	}
	if !confirmed {
		return Resolution{Class: NotFound, Candidates: res}, nil
	}
	return Resolution{
		Class:      Resolved,
		Binding:    repair.Binding{Profile: profile},
		Candidates: res,
	}, nil
}

func (p *Policy) confirmStandalone(ctx context.Context, profile *identity.AuthorProfile) (bool, error) {
	if !p.allowStandalone {
		return false, nil
	}
	d, err := p.provider.Decide(ctx, decision.Request{
		Kind:         decision.ConfirmStandalone,
		ProfileID:    profile.ID,
		ProfileLabel: profileLabel(profile),
	})
	if err != nil {
		return false, fmt.Errorf("standalone escalation: %w", err)
	}
	switch d.Outcome {
	case decision.Halt:
		return false, identity.ErrOperatorHalt
	case decision.Chosen:
		return true, nil
	}
	return false, nil
}

func accountRows(candidates []match.Candidate) []decision.Candidate {
	rows := make([]decision.Candidate, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, decision.Candidate{
			Index: i,
			Kind:  "account",
			ID:    c.Account.ID,
			Label: candidateLabel(c.Account.DisplayName, c.Account.Login, c.Account.Email),
			Pass:  string(c.Pass),
		})
	}
	return rows
}

func groupRows(candidates []match.Candidate) []decision.Candidate {
	rows := make([]decision.Candidate, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, decision.Candidate{
			Index: i,
			Kind:  "group",
			ID:    c.Group.ID,
			Label: candidateLabel(c.Group.Name, c.Group.Slug, ""),
			Pass:  string(c.Pass),
		})
	}
	return rows
}

func candidateLabel(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " / ")
}

func profileLabel(profile *identity.AuthorProfile) string {
	if name := strings.TrimSpace(profile.DisplayName); name != "" {
		return name
	}
	return profile.Email
}
