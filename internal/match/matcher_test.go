package match_test

import (
	"context"
	"testing"

	"authorfix/internal/identity"
	"authorfix/internal/logging"
	"authorfix/internal/match"
	"authorfix/internal/store"
	"authorfix/internal/testsupport"
)

func newMatcher(st *store.Store) *match.Matcher {
	return match.New(st, logging.NewNop(), "cap-")
}

func TestMatchEmailPassWins(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	testsupport.SeedAccount(t, st, identity.Account{
		ID: 1, Login: "jane9f3", Nicename: "jane-doe", Email: "jane@example.com",
	})
	// Would match on the slug pass, but the email pass fires first.
	testsupport.SeedAccount(t, st, identity.Account{
		ID: 2, Login: "other", Nicename: "jane-smith", Email: "other@example.com",
	})
	profile := &identity.AuthorProfile{
		ID: 501, Email: "jane@example.com", LoginSlug: "cap-jane-smith",
	}

	res, err := newMatcher(st).Match(ctx, profile, "")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(res.Accounts) != 1 || res.Accounts[0].Account.ID != 1 {
		t.Fatalf("accounts = %+v, want only the email match", res.Accounts)
	}
	if res.Accounts[0].Pass != match.PassEmail {
		t.Errorf("pass = %v, want email", res.Accounts[0].Pass)
	}
}

func TestMatchSlugPass(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	testsupport.SeedAccount(t, st, identity.Account{ID: 1, Login: "jd", Nicename: "jane-doe"})
	testsupport.SeedGroup(t, st, identity.DisplayGroup{ID: 7, Slug: "cap-jane-doe"})
	profile := &identity.AuthorProfile{ID: 501, LoginSlug: "cap-jane-doe"}

	res, err := newMatcher(st).Match(ctx, profile, "")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(res.Accounts) != 1 || res.Accounts[0].Pass != match.PassSlug {
		t.Errorf("accounts = %+v, want one slug match", res.Accounts)
	}
	if len(res.Groups) != 1 || res.Groups[0].Group.ID != 7 || res.Groups[0].Pass != match.PassSlug {
		t.Errorf("groups = %+v, want group 7 via slug", res.Groups)
	}
}

func TestMatchDescriptorPasses(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	testsupport.SeedAccount(t, st, identity.Account{ID: 9, Login: "jane9f3", Email: "jane@example.com"})
	testsupport.SeedGroup(t, st, identity.DisplayGroup{
		ID: 7, Slug: "cap-stale", Description: "Jane Doe cap-jane-doe 501 jane@example.com",
	})
	profile := &identity.AuthorProfile{ID: 501}

	// The account comes from the descriptor attached to the linked group.
	res, err := newMatcher(st).Match(ctx, profile, "Jane Doe 9 jane@example.com")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(res.Accounts) != 1 || res.Accounts[0].Account.ID != 9 {
		t.Fatalf("accounts = %+v, want account 9 via descriptor id", res.Accounts)
	}
	if res.Accounts[0].Pass != match.PassDescriptorID {
		t.Errorf("pass = %v, want descriptor_id", res.Accounts[0].Pass)
	}
	// The group comes from scanning all descriptors for the profile id.
	if len(res.Groups) != 1 || res.Groups[0].Group.ID != 7 {
		t.Fatalf("groups = %+v, want group 7 via descriptor id", res.Groups)
	}
	if res.Groups[0].Pass != match.PassDescriptorID {
		t.Errorf("group pass = %v, want descriptor_id", res.Groups[0].Pass)
	}
}

func TestMatchFuzzyNameSurfacesButNotAutoApplicable(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	testsupport.SeedGroup(t, st, identity.DisplayGroup{
		ID: 7, Slug: "cap-unknown", Description: "jane archive doe legacy import",
	})
	profile := &identity.AuthorProfile{ID: 501, DisplayName: "Jane Doe"}

	res, err := newMatcher(st).Match(ctx, profile, "")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(res.Groups) != 1 || res.Groups[0].Pass != match.PassFuzzyName {
		t.Fatalf("groups = %+v, want one fuzzy hit", res.Groups)
	}
	if res.Groups[0].Pass.AutoApplicable() {
		t.Error("fuzzy name hits must never be auto-applied")
	}
	if !match.PassEmail.AutoApplicable() || !match.PassSlug.AutoApplicable() {
		t.Error("exact passes must be auto-applicable")
	}
}

func TestMatchAllMergesAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	// Account 1 matches both the email and slug passes; it must appear once,
	// attributed to the higher-priority pass.
	testsupport.SeedAccount(t, st, identity.Account{
		ID: 1, Login: "jd", Nicename: "jane-doe", Email: "jane@example.com",
	})
	testsupport.SeedAccount(t, st, identity.Account{
		ID: 2, Login: "jane-alt", Email: "other@example.com",
	})
	profile := &identity.AuthorProfile{
		ID: 501, Email: "jane@example.com", LoginSlug: "cap-jane-doe",
		LinkedAccountLogin: "jane-alt",
	}

	res, err := newMatcher(st).MatchAll(ctx, profile, "")
	if err != nil {
		t.Fatalf("match all: %v", err)
	}
	if len(res.Accounts) != 2 {
		t.Fatalf("accounts = %+v, want both accounts merged", res.Accounts)
	}
	if res.Accounts[0].Account.ID != 1 || res.Accounts[0].Pass != match.PassEmail {
		t.Errorf("first candidate = %+v, want account 1 via email", res.Accounts[0])
	}
	if res.Accounts[1].Account.ID != 2 || res.Accounts[1].Pass != match.PassSlug {
		t.Errorf("second candidate = %+v, want account 2 via slug", res.Accounts[1])
	}
}

func TestMatchNilProfile(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	res, err := newMatcher(st).Match(ctx, nil, "")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !res.Empty() {
		t.Errorf("result = %+v, want empty", res)
	}
}
