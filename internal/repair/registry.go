package repair

import (
	"context"
	"fmt"

	"authorfix/internal/store"
)

// Registry is the in-memory slug index used for uniqueness checks. The
// legacy tooling queried the database ad hoc on every check; holding the
// index explicitly makes the sequential-processing requirement visible
// instead of implicit.
type Registry struct {
	groupSlugs map[string]int64
	nicenames  map[string]int64
}

// NewRegistry returns an empty registry; call Load before planning.
func NewRegistry() *Registry {
	return &Registry{
		groupSlugs: make(map[string]int64),
		nicenames:  make(map[string]int64),
	}
}

// Load rebuilds the index from the live record sets.
func (r *Registry) Load(ctx context.Context, repo store.Repository) error {
	slugs, err := repo.AllGroupSlugs(ctx)
	if err != nil {
		return fmt.Errorf("load group slugs: %w", err)
	}
	nicenames, err := repo.AllAccountNicenames(ctx)
	if err != nil {
		return fmt.Errorf("load account nicenames: %w", err)
	}
	r.groupSlugs = slugs
	r.nicenames = nicenames
	return nil
}

// GroupSlugOwner returns the group currently holding a slug.
func (r *Registry) GroupSlugOwner(slug string) (int64, bool) {
	id, ok := r.groupSlugs[slug]
	return id, ok
}

// GroupSlugInUseByOther reports whether a slug belongs to a group other than
// the given one.
func (r *Registry) GroupSlugInUseByOther(slug string, groupID int64) bool {
	owner, ok := r.groupSlugs[slug]
	return ok && owner != groupID
}

// NicenameInUseByOther reports whether an account nicename belongs to an
// account other than the given one.
func (r *Registry) NicenameInUseByOther(nicename string, accountID int64) bool {
	owner, ok := r.nicenames[nicename]
	return ok && owner != accountID
}

// CommitGroupSlug records a committed slug change for a group.
func (r *Registry) CommitGroupSlug(oldSlug, newSlug string, groupID int64) {
	if oldSlug != "" && oldSlug != newSlug {
		if owner, ok := r.groupSlugs[oldSlug]; ok && owner == groupID {
			delete(r.groupSlugs, oldSlug)
		}
	}
	if newSlug != "" {
		r.groupSlugs[newSlug] = groupID
	}
}

// CommitNicename records a committed nicename change for an account.
func (r *Registry) CommitNicename(oldName, newName string, accountID int64) {
	if oldName != "" && oldName != newName {
		if owner, ok := r.nicenames[oldName]; ok && owner == accountID {
			delete(r.nicenames, oldName)
		}
	}
	if newName != "" {
		r.nicenames[newName] = accountID
	}
}
