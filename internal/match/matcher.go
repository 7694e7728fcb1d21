package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"authorfix/internal/descriptor"
	"authorfix/internal/identity"
	"authorfix/internal/logging"
	"authorfix/internal/slugify"
	"authorfix/internal/store"
)

// Pass identifies the matching pass that produced a candidate.
type Pass string

const (
	PassEmail           Pass = "email"
	PassSlug            Pass = "slug"
	PassDescriptorID    Pass = "descriptor_id"
	PassDescriptorEmail Pass = "descriptor_email"
	PassFuzzyName       Pass = "fuzzy_name"
)

// AutoApplicable reports whether a candidate from this pass may be bound
// without operator confirmation. Fuzzy name hits only surface candidates for
// escalation.
func (p Pass) AutoApplicable() bool {
	return p != PassFuzzyName
}

// Candidate is a proposed partner for a profile. Exactly one of Account and
// Group is set.
type Candidate struct {
	Account *identity.Account
	Group   *identity.DisplayGroup
	Pass    Pass
}

// Result holds the per-entity-type candidate lists for one profile. Within
// each list every candidate comes from the same pass (the first non-empty
// one), unless the caller requested all passes merged.
type Result struct {
	Accounts []Candidate
	Groups   []Candidate
}

// Empty reports whether no pass produced any candidate.
func (r Result) Empty() bool {
	return len(r.Accounts) == 0 && len(r.Groups) == 0
}

// Matcher proposes ranked candidates from the live record sets.
type Matcher struct {
	repo       store.Repository
	logger     *slog.Logger
	slugPrefix string
}

// New constructs a matcher bound to a repository.
func New(repo store.Repository, logger *slog.Logger, slugPrefix string) *Matcher {
	return &Matcher{
		repo:       repo,
		logger:     logging.NewComponentLogger(logger, "match"),
		slugPrefix: slugPrefix,
	}
}

// Match runs the passes in priority order for a profile; per entity type the
// first non-empty pass wins. desc is the descriptor text of a group already
// associated with the profile, or "" when none exists.
func (m *Matcher) Match(ctx context.Context, profile *identity.AuthorProfile, desc string) (Result, error) {
	return m.match(ctx, profile, desc, false)
}

// MatchAll merges the candidates of every pass, deduplicated, preserving pass
// order. Used when escalating so the operator sees all plausible partners.
func (m *Matcher) MatchAll(ctx context.Context, profile *identity.AuthorProfile, desc string) (Result, error) {
	return m.match(ctx, profile, desc, true)
}

func (m *Matcher) match(ctx context.Context, profile *identity.AuthorProfile, desc string, all bool) (Result, error) {
	var res Result
	if profile == nil {
		return res, nil
	}

	accounts, err := m.matchAccounts(ctx, profile, desc, all)
	if err != nil {
		return res, err
	}
	res.Accounts = accounts

	groups, err := m.matchGroups(ctx, profile, all)
	if err != nil {
		return res, err
	}
	res.Groups = groups

	m.logger.Debug("candidate matching finished",
		logging.Int64("profile_id", profile.ID),
		logging.Int("account_candidates", len(res.Accounts)),
		logging.Int("group_candidates", len(res.Groups)),
	)
	return res, nil
}

func (m *Matcher) matchAccounts(ctx context.Context, profile *identity.AuthorProfile, desc string, all bool) ([]Candidate, error) {
	var merged []Candidate
	seen := make(map[int64]struct{})
	add := func(account *identity.Account, pass Pass) {
		if account == nil {
			return
		}
		if _, ok := seen[account.ID]; ok {
			return
		}
		seen[account.ID] = struct{}{}
		merged = append(merged, Candidate{Account: account, Pass: pass})
	}

	// Pass 1: exact email.
	if email := strings.TrimSpace(profile.Email); email != "" {
		accounts, err := m.repo.FindAccountsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("account email pass: %w", err)
		}
		for _, account := range accounts {
			add(account, PassEmail)
		}
		if len(merged) > 0 && !all {
			return merged, nil
		}
	}

	// Pass 2: exact login/slug.
	if login := strings.TrimSpace(profile.LinkedAccountLogin); login != "" {
		account, err := m.repo.FindAccountByLogin(ctx, login)
		if err != nil {
			return nil, fmt.Errorf("account login pass: %w", err)
		}
		add(account, PassSlug)
	}
	if stripped := slugify.StripPrefix(strings.TrimSpace(profile.LoginSlug), m.slugPrefix); stripped != "" {
		account, err := m.repo.FindAccountByNicename(ctx, stripped)
		if err != nil {
			return nil, fmt.Errorf("account nicename pass: %w", err)
		}
		add(account, PassSlug)
	}
	if len(merged) > 0 && !all {
		return merged, nil
	}

	// Pass 3: descriptor-embedded identifiers.
	if fields := descriptor.Parse(desc); desc != "" {
		if fields.ID > 0 {
			account, err := m.repo.FindAccountByID(ctx, fields.ID)
			if err != nil {
				return nil, fmt.Errorf("account descriptor id pass: %w", err)
			}
			add(account, PassDescriptorID)
		}
		if fields.Email != "" {
			accounts, err := m.repo.FindAccountsByEmail(ctx, fields.Email)
			if err != nil {
				return nil, fmt.Errorf("account descriptor email pass: %w", err)
			}
			for _, account := range accounts {
				add(account, PassDescriptorEmail)
			}
		}
	}
	return merged, nil
}

func (m *Matcher) matchGroups(ctx context.Context, profile *identity.AuthorProfile, all bool) ([]Candidate, error) {
	var merged []Candidate
	seen := make(map[int64]struct{})
	add := func(group *identity.DisplayGroup, pass Pass) {
		if group == nil {
			return
		}
		if _, ok := seen[group.ID]; ok {
			return
		}
		seen[group.ID] = struct{}{}
		merged = append(merged, Candidate{Group: group, Pass: pass})
	}

	// Pass 2: exact slug (groups carry no email field, so pass 1 never
	// applies to them).
	if loginSlug := strings.TrimSpace(profile.LoginSlug); loginSlug != "" {
		for _, slug := range slugVariants(loginSlug, m.slugPrefix) {
			group, err := m.repo.FindDisplayGroupBySlug(ctx, slug)
			if err != nil {
				return nil, fmt.Errorf("group slug pass: %w", err)
			}
			add(group, PassSlug)
		}
		if len(merged) > 0 && !all {
			return merged, nil
		}
	}

	// Passes 3 and 4 scan descriptors across the whole group set.
	groups, err := m.repo.ListDisplayGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups for descriptor pass: %w", err)
	}

	for _, group := range groups {
		fields := descriptor.Parse(group.Description)
		if fields.ID > 0 && fields.ID == profile.ID {
			add(group, PassDescriptorID)
		}
	}
	if len(merged) > 0 && !all {
		return merged, nil
	}
	if email := strings.TrimSpace(profile.Email); email != "" {
		for _, group := range groups {
			if descriptor.Parse(group.Description).Email == email {
				add(group, PassDescriptorEmail)
			}
		}
		if len(merged) > 0 && !all {
			return merged, nil
		}
	}

	// Pass 4: fuzzy name, last resort. Both name tokens must appear as
	// substrings of the candidate's descriptor.
	first, last := descriptor.SplitName(profile.DisplayName)
	if first != "" && last != "" {
		lowerFirst, lowerLast := strings.ToLower(first), strings.ToLower(last)
		for _, group := range groups {
			haystack := strings.ToLower(group.Description)
			if haystack == "" {
				continue
			}
			if strings.Contains(haystack, lowerFirst) && strings.Contains(haystack, lowerLast) {
				add(group, PassFuzzyName)
			}
		}
	}
	return merged, nil
}

func slugVariants(loginSlug, prefix string) []string {
	variants := []string{loginSlug}
	stripped := slugify.StripPrefix(loginSlug, prefix)
	if stripped != loginSlug {
		variants = append(variants, stripped)
	} else if prefix != "" {
		variants = append(variants, prefix+loginSlug)
	}
	return variants
}
