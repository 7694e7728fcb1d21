package repair

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"authorfix/internal/identity"
	"authorfix/internal/logging"
	"authorfix/internal/store"
)

// Executor applies a plan and re-validates the written state. Writes are
// per-entity upserts keyed by stable ids, so re-applying the same plan is a
// no-op.
type Executor struct {
	repo     store.Repository
	registry *Registry
	logger   *slog.Logger
	prefix   string
}

func NewExecutor(repo store.Repository, registry *Registry, logger *slog.Logger, slugPrefix string) *Executor {
	return &Executor{
		repo:     repo,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "repair"),
		prefix:   slugPrefix,
	}
}

// Apply writes the plan's changes and verifies the repaired binding reads
// back consistent. Any write error or a failed post-check reports
// identity.ErrRepairFailed.
func (e *Executor) Apply(ctx context.Context, plan *Plan) error {
	if plan == nil || plan.Empty() {
		return nil
	}
	b := plan.Binding

	oldSlug := changeOldValue(plan, EntityGroup, "slug")
	oldNicename := changeOldValue(plan, EntityAccount, "nicename")

	if b.Group != nil && b.Group.ID == 0 {
		id, err := e.repo.InsertDisplayGroup(ctx, b.Group)
		if err != nil {
			return fmt.Errorf("%w: insert display group: %v", identity.ErrRepairFailed, err)
		}
		b.Group.ID = id
		for i := range plan.Changes {
			if plan.Changes[i].Entity == EntityGroup && plan.Changes[i].EntityID == 0 {
				plan.Changes[i].EntityID = id
			}
		}
		for i := range plan.InsertRelationships {
			if plan.InsertRelationships[i].GroupID == 0 {
				plan.InsertRelationships[i].GroupID = id
			}
		}
	} else if b.Group != nil && len(plan.ChangesFor(EntityGroup, b.Group.ID)) > 0 {
		if err := e.repo.UpsertDisplayGroup(ctx, b.Group); err != nil {
			return fmt.Errorf("%w: upsert display group %d: %v", identity.ErrRepairFailed, b.Group.ID, err)
		}
	}

	if b.Account != nil && len(plan.ChangesFor(EntityAccount, b.Account.ID)) > 0 {
		if err := e.repo.UpsertAccount(ctx, b.Account); err != nil {
			return fmt.Errorf("%w: upsert account %d: %v", identity.ErrRepairFailed, b.Account.ID, err)
		}
	}

	if b.Profile != nil && len(plan.ChangesFor(EntityProfile, b.Profile.ID)) > 0 {
		if err := e.repo.UpsertAuthorProfile(ctx, b.Profile); err != nil {
			return fmt.Errorf("%w: upsert author profile %d: %v", identity.ErrRepairFailed, b.Profile.ID, err)
		}
	}

	for _, transfer := range plan.MetaTransfers {
		if err := e.repo.SetProfileMeta(ctx, transfer.ProfileID, transfer.Key, transfer.Value); err != nil {
			return fmt.Errorf("%w: transfer meta %q to profile %d: %v", identity.ErrRepairFailed, transfer.Key, transfer.ProfileID, err)
		}
	}

	for _, rel := range plan.DeleteRelationships {
		if err := e.repo.DeleteRelationship(ctx, rel); err != nil {
			return fmt.Errorf("%w: delete relationship %d/%d: %v", identity.ErrRepairFailed, rel.ProfileID, rel.GroupID, err)
		}
	}
	for _, rel := range plan.InsertRelationships {
		if err := e.repo.InsertRelationship(ctx, rel); err != nil {
			return fmt.Errorf("%w: insert relationship %d/%d: %v", identity.ErrRepairFailed, rel.ProfileID, rel.GroupID, err)
		}
	}

	if plan.DeleteProfileID != 0 {
		if err := e.repo.DeleteAuthorProfile(ctx, plan.DeleteProfileID); err != nil {
			return fmt.Errorf("%w: delete duplicate profile %d: %v", identity.ErrRepairFailed, plan.DeleteProfileID, err)
		}
	}

	if err := e.verify(ctx, plan); err != nil {
		return err
	}

	if b.Group != nil && b.Group.Slug != "" {
		e.registry.CommitGroupSlug(oldSlug, b.Group.Slug, b.Group.ID)
	}
	if b.Account != nil && b.Account.Nicename != "" {
		e.registry.CommitNicename(oldNicename, b.Account.Nicename, b.Account.ID)
	}

	e.logger.Info("repair applied",
		logging.Int64("profile_id", profileID(b)),
		logging.Int("changes", len(plan.Changes)),
		logging.Int("relationship_inserts", len(plan.InsertRelationships)),
		logging.Int("relationship_deletes", len(plan.DeleteRelationships)),
	)
	return nil
}

// verify re-reads every touched entity and confirms both the individual
// field writes and the overall field parity of the binding.
func (e *Executor) verify(ctx context.Context, plan *Plan) error {
	b := plan.Binding
	fresh := Binding{}

	if b.Account != nil {
		account, err := e.repo.FindAccountByID(ctx, b.Account.ID)
		if err != nil {
			return fmt.Errorf("%w: re-read account %d: %v", identity.ErrRepairFailed, b.Account.ID, err)
		}
		if account == nil {
			return fmt.Errorf("%w: account %d vanished after write", identity.ErrRepairFailed, b.Account.ID)
		}
		fresh.Account = account
	}
	if b.Profile != nil {
		profile, err := e.repo.FindAuthorProfile(ctx, b.Profile.ID)
		if err != nil {
			return fmt.Errorf("%w: re-read profile %d: %v", identity.ErrRepairFailed, b.Profile.ID, err)
		}
		if profile == nil {
			return fmt.Errorf("%w: profile %d vanished after write", identity.ErrRepairFailed, b.Profile.ID)
		}
		fresh.Profile = profile
	}
	if b.Group != nil {
		group, err := e.repo.FindDisplayGroupByID(ctx, b.Group.ID)
		if err != nil {
			return fmt.Errorf("%w: re-read group %d: %v", identity.ErrRepairFailed, b.Group.ID, err)
		}
		if group == nil {
			return fmt.Errorf("%w: group %d vanished after write", identity.ErrRepairFailed, b.Group.ID)
		}
		fresh.Group = group
	}

	for _, change := range plan.Changes {
		got, ok := fieldValue(change, fresh)
		if !ok {
			continue
		}
		if got != change.New {
			return fmt.Errorf("%w: %s %d field %s read back %q, wanted %q",
				identity.ErrRepairFailed, change.Entity, change.EntityID, change.Field, got, change.New)
		}
	}

	if fresh.Profile != nil && fresh.Group != nil {
		if mismatches := Parity(fresh, e.prefix); len(mismatches) > 0 {
			fields := make([]string, 0, len(mismatches))
			for _, m := range mismatches {
				fields = append(fields, m.Field)
			}
			return fmt.Errorf("%w: parity check failed after write: %s",
				identity.ErrRepairFailed, strings.Join(fields, ", "))
		}
	}

	if plan.DeleteProfileID != 0 {
		dup, err := e.repo.FindAuthorProfile(ctx, plan.DeleteProfileID)
		if err != nil {
			return fmt.Errorf("%w: re-read duplicate profile %d: %v", identity.ErrRepairFailed, plan.DeleteProfileID, err)
		}
		if dup != nil {
			return fmt.Errorf("%w: duplicate profile %d still present after delete", identity.ErrRepairFailed, plan.DeleteProfileID)
		}
	}
	return nil
}

func fieldValue(change Change, b Binding) (string, bool) {
	switch change.Entity {
	case EntityAccount:
		if b.Account == nil || b.Account.ID != change.EntityID {
			return "", false
		}
		switch change.Field {
		case "nicename":
			return b.Account.Nicename, true
		}
	case EntityProfile:
		if b.Profile == nil || b.Profile.ID != change.EntityID {
			return "", false
		}
		switch change.Field {
		case "display_name":
			return b.Profile.DisplayName, true
		case "email":
			return b.Profile.Email, true
		case "login_slug":
			return b.Profile.LoginSlug, true
		case "linked_account_login":
			return b.Profile.LinkedAccountLogin, true
		}
	case EntityGroup:
		if b.Group == nil || b.Group.ID != change.EntityID {
			return "", false
		}
		switch change.Field {
		case "name":
			return b.Group.Name, true
		case "slug":
			return b.Group.Slug, true
		case "description":
			return b.Group.Description, true
		}
	}
	return "", false
}

func changeOldValue(plan *Plan, entity EntityKind, field string) string {
	for _, change := range plan.Changes {
		if change.Entity == entity && change.Field == field {
			return change.Old
		}
	}
	return ""
}

func profileID(b Binding) int64 {
	if b.Profile == nil {
		return 0
	}
	return b.Profile.ID
}
