package repair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"authorfix/internal/decision"
	"authorfix/internal/descriptor"
	"authorfix/internal/identity"
	"authorfix/internal/logging"
	"authorfix/internal/slugify"
	"authorfix/internal/store"
)

// Planner computes the canonical values a binding should hold and diffs them
// against current state.
type Planner struct {
	repo     store.Repository
	registry *Registry
	provider decision.Provider
	logger   *slog.Logger
	prefix   string
}

// NewPlanner constructs a planner. The registry must already be loaded.
func NewPlanner(repo store.Repository, registry *Registry, provider decision.Provider, logger *slog.Logger, slugPrefix string) *Planner {
	return &Planner{
		repo:     repo,
		registry: registry,
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "repair"),
		prefix:   slugPrefix,
	}
}

// Plan computes the minimal field-level diff for a binding. A nil Group in
// the binding means the operator confirmed standalone synthesis: the plan
// carries a new group with id 0 which the executor inserts.
func (p *Planner) Plan(ctx context.Context, b Binding) (*Plan, error) {
	if b.Profile == nil {
		return nil, errors.New("binding requires a profile")
	}

	base, err := p.canonicalBase(b)
	if err != nil {
		return nil, err
	}
	slug, err := p.uniqueSlug(ctx, b, p.prefix+base)
	if err != nil {
		return nil, err
	}
	base = slugify.StripPrefix(slug, p.prefix)

	displayName := canonicalDisplayName(b)
	email := canonicalEmail(b)
	first, last := canonicalNames(b, displayName)

	plan := &Plan{}

	profile := *b.Profile
	profile.DisplayName = displayName
	profile.Email = email
	profile.LoginSlug = slug
	if b.Account != nil {
		profile.LinkedAccountLogin = b.Account.Login
	}

	var account *identity.Account
	if b.Account != nil {
		canonical := *b.Account
		canonical.Nicename = base
		account = &canonical
		addChange(plan, EntityAccount, account.ID, "nicename", b.Account.Nicename, account.Nicename)
	}

	var group identity.DisplayGroup
	if b.Group != nil {
		group = *b.Group
	}
	group.Name = displayName
	group.Slug = slug
	group.Description = descriptor.Encode(descriptor.Fields{
		DisplayName: displayName,
		FirstName:   first,
		LastName:    last,
		Login:       slug,
		ID:          profile.ID,
		Email:       email,
	})

	addChange(plan, EntityProfile, profile.ID, "display_name", b.Profile.DisplayName, profile.DisplayName)
	addChange(plan, EntityProfile, profile.ID, "email", b.Profile.Email, profile.Email)
	addChange(plan, EntityProfile, profile.ID, "login_slug", b.Profile.LoginSlug, profile.LoginSlug)
	addChange(plan, EntityProfile, profile.ID, "linked_account_login", b.Profile.LinkedAccountLogin, profile.LinkedAccountLogin)

	if b.Group != nil {
		addChange(plan, EntityGroup, group.ID, "name", b.Group.Name, group.Name)
		addChange(plan, EntityGroup, group.ID, "slug", b.Group.Slug, group.Slug)
		addChange(plan, EntityGroup, group.ID, "description", b.Group.Description, group.Description)
	} else {
		addChange(plan, EntityGroup, 0, "name", "", group.Name)
		addChange(plan, EntityGroup, 0, "slug", "", group.Slug)
		addChange(plan, EntityGroup, 0, "description", "", group.Description)
	}

	plan.Binding = Binding{Account: account, Profile: &profile, Group: &group}

	if err := p.planRelationships(ctx, plan, profile.ID, group.ID); err != nil {
		return nil, err
	}

	p.logger.Debug("repair planned",
		logging.Int64("profile_id", profile.ID),
		logging.String("canonical_slug", slug),
		logging.Int("changes", len(plan.Changes)),
	)
	return plan, nil
}

// PlanMerge folds a duplicate profile into the canonical one: metadata keys
// missing on the canonical profile transfer over, relationships re-point,
// and the duplicate is deleted.
func (p *Planner) PlanMerge(ctx context.Context, canonical, dup *identity.AuthorProfile) (*Plan, error) {
	if canonical == nil || dup == nil {
		return nil, errors.New("merge requires both profiles")
	}
	if canonical.ID >= dup.ID {
		return nil, fmt.Errorf("merge direction: canonical %d must be the lower id", canonical.ID)
	}

	plan := &Plan{
		Binding:         Binding{Profile: canonical},
		DeleteProfileID: dup.ID,
	}
	plan.Changes = append(plan.Changes, Change{
		Entity:   EntityProfile,
		EntityID: dup.ID,
		Field:    "merged_into",
		Old:      "",
		New:      strconv.FormatInt(canonical.ID, 10),
	})

	canonicalMeta, err := p.repo.ListProfileMeta(ctx, canonical.ID)
	if err != nil {
		return nil, fmt.Errorf("list canonical meta: %w", err)
	}
	existingKeys := make(map[string]struct{}, len(canonicalMeta))
	for _, meta := range canonicalMeta {
		existingKeys[meta.Key] = struct{}{}
	}
	dupMeta, err := p.repo.ListProfileMeta(ctx, dup.ID)
	if err != nil {
		return nil, fmt.Errorf("list duplicate meta: %w", err)
	}
	for _, meta := range dupMeta {
		if meta.Key == identity.ValidatedMetaKey {
			continue
		}
		// Canonical wins on key conflicts.
		if _, ok := existingKeys[meta.Key]; ok {
			continue
		}
		plan.MetaTransfers = append(plan.MetaTransfers, MetaTransfer{
			ProfileID: canonical.ID,
			Key:       meta.Key,
			Value:     meta.Value,
		})
	}

	canonicalRels, err := p.repo.ListRelationshipsForProfile(ctx, canonical.ID)
	if err != nil {
		return nil, fmt.Errorf("list canonical relationships: %w", err)
	}
	linkedGroups := make(map[int64]struct{}, len(canonicalRels))
	for _, rel := range canonicalRels {
		linkedGroups[rel.GroupID] = struct{}{}
	}
	dupRels, err := p.repo.ListRelationshipsForProfile(ctx, dup.ID)
	if err != nil {
		return nil, fmt.Errorf("list duplicate relationships: %w", err)
	}
	for _, rel := range dupRels {
		plan.DeleteRelationships = append(plan.DeleteRelationships, rel)
		if _, ok := linkedGroups[rel.GroupID]; !ok {
			plan.InsertRelationships = append(plan.InsertRelationships, identity.Relationship{
				ProfileID: canonical.ID,
				GroupID:   rel.GroupID,
			})
			linkedGroups[rel.GroupID] = struct{}{}
		}
	}

	p.logger.Debug("duplicate merge planned",
		logging.Int64("canonical_id", canonical.ID),
		logging.Int64("duplicate_id", dup.ID),
		logging.Int("meta_transfers", len(plan.MetaTransfers)),
	)
	return plan, nil
}

func (p *Planner) canonicalBase(b Binding) (string, error) {
	if name := strings.TrimSpace(b.Profile.DisplayName); name != "" && !slugify.IsEmail(name) {
		if base := slugify.Sanitize(name); base != "" {
			return base, nil
		}
	}
	if b.Account != nil {
		first := strings.TrimSpace(b.Account.FirstName)
		last := strings.TrimSpace(b.Account.LastName)
		if first != "" && last != "" {
			if base := slugify.Sanitize(first + " " + last); base != "" {
				return base, nil
			}
		}
		if name := strings.TrimSpace(b.Account.DisplayName); name != "" && !slugify.IsEmail(name) {
			if base := slugify.Sanitize(name); base != "" {
				return base, nil
			}
		}
		if nicename := strings.TrimSpace(b.Account.Nicename); nicename != "" {
			return nicename, nil
		}
		// The login-is-never-an-email invariant is exactly what broken
		// imports violate, hence the truncation rule.
		if login := strings.TrimSpace(b.Account.Login); login != "" {
			if base := slugify.Sanitize(slugify.EmailLocalPart(login)); base != "" {
				return base, nil
			}
		}
	}
	if email := strings.TrimSpace(b.Profile.Email); email != "" {
		if base := slugify.Sanitize(slugify.EmailLocalPart(email)); base != "" {
			return base, nil
		}
	}
	return "", fmt.Errorf("cannot derive canonical slug for profile %d: %w", b.Profile.ID, identity.ErrRepairFailed)
}

// uniqueSlug enforces global slug uniqueness against the registry, escalating
// for a manually supplied slug on collision. The unprefixed form must also be
// free as an account nicename. Loops until unique or the operator abstains or
// halts.
func (p *Planner) uniqueSlug(ctx context.Context, b Binding, slug string) (string, error) {
	for {
		ownerID, taken := p.registry.GroupSlugOwner(slug)
		conflict := taken && !(b.Group != nil && ownerID == b.Group.ID)
		if !conflict && b.Account != nil {
			base := slugify.StripPrefix(slug, p.prefix)
			conflict = p.registry.NicenameInUseByOther(base, b.Account.ID)
		}
		if !conflict {
			return slug, nil
		}

		d, err := p.provider.Decide(ctx, decision.Request{
			Kind:         decision.SupplySlug,
			ProfileID:    b.Profile.ID,
			ProfileLabel: profileLabel(b.Profile),
			TakenSlug:    slug,
		})
		if err != nil {
			return "", fmt.Errorf("slug escalation: %w", err)
		}
		switch d.Outcome {
		case decision.Halt:
			return "", identity.ErrOperatorHalt
		case decision.Chosen:
			supplied := slugify.Sanitize(d.Slug)
			if supplied == "" {
				continue
			}
			if !strings.HasPrefix(supplied, p.prefix) {
				supplied = p.prefix + supplied
			}
			slug = supplied
		default:
			return "", fmt.Errorf("canonical slug %q already in use: %w", slug, identity.ErrDuplicateSlug)
		}
	}
}

func (p *Planner) planRelationships(ctx context.Context, plan *Plan, profileID, groupID int64) error {
	desiredPresent := false
	profileRels, err := p.repo.ListRelationshipsForProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("list profile relationships: %w", err)
	}
	for _, rel := range profileRels {
		if groupID != 0 && rel.GroupID == groupID {
			desiredPresent = true
			continue
		}
		plan.DeleteRelationships = append(plan.DeleteRelationships, rel)
	}
	if groupID != 0 {
		groupRels, err := p.repo.ListRelationshipsForGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("list group relationships: %w", err)
		}
		for _, rel := range groupRels {
			if rel.ProfileID != profileID {
				plan.DeleteRelationships = append(plan.DeleteRelationships, rel)
			}
		}
	}
	if !desiredPresent {
		plan.InsertRelationships = append(plan.InsertRelationships, identity.Relationship{
			ProfileID: profileID,
			GroupID:   groupID,
		})
	}
	return nil
}

func canonicalDisplayName(b Binding) string {
	name := strings.TrimSpace(b.Profile.DisplayName)
	if name != "" && !slugify.IsEmail(name) {
		return name
	}
	if b.Account != nil {
		first := strings.TrimSpace(b.Account.FirstName)
		last := strings.TrimSpace(b.Account.LastName)
		if first != "" && last != "" {
			return first + " " + last
		}
		if accountName := strings.TrimSpace(b.Account.DisplayName); accountName != "" && !slugify.IsEmail(accountName) {
			return accountName
		}
	}
	if b.Group != nil {
		if groupName := strings.TrimSpace(b.Group.Name); groupName != "" {
			return groupName
		}
	}
	return name
}

func canonicalEmail(b Binding) string {
	if b.Account != nil && strings.TrimSpace(b.Account.Email) != "" {
		return strings.TrimSpace(b.Account.Email)
	}
	return strings.TrimSpace(b.Profile.Email)
}

func canonicalNames(b Binding, displayName string) (first, last string) {
	if b.Account != nil {
		first = strings.TrimSpace(b.Account.FirstName)
		last = strings.TrimSpace(b.Account.LastName)
		if first != "" && last != "" {
			return first, last
		}
	}
	return descriptor.SplitName(displayName)
}

func addChange(plan *Plan, entity EntityKind, id int64, field, oldValue, newValue string) {
	if oldValue == newValue {
		return
	}
	plan.Changes = append(plan.Changes, Change{
		Entity:   entity,
		EntityID: id,
		Field:    field,
		Old:      oldValue,
		New:      newValue,
	})
}

func profileLabel(profile *identity.AuthorProfile) string {
	if profile == nil {
		return ""
	}
	if name := strings.TrimSpace(profile.DisplayName); name != "" {
		return name
	}
	return profile.Email
}
