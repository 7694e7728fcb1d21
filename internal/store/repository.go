package store

import (
	"context"

	"authorfix/internal/identity"
)

// Repository is the persistence surface the repair engine consumes. The
// surrounding content platform provides the production implementation; this
// repository ships the SQLite Store, which the engine and its tests use
// directly.
//
// Lookup methods return nil (not an error) when no record matches.
type Repository interface {
	FindAccountByID(ctx context.Context, id int64) (*identity.Account, error)
	FindAccountByLogin(ctx context.Context, login string) (*identity.Account, error)
	FindAccountByNicename(ctx context.Context, nicename string) (*identity.Account, error)
	FindAccountsByEmail(ctx context.Context, email string) ([]*identity.Account, error)
	UpsertAccount(ctx context.Context, account *identity.Account) error

	FindAuthorProfile(ctx context.Context, id int64) (*identity.AuthorProfile, error)
	FindAuthorProfilesByEmail(ctx context.Context, email string) ([]*identity.AuthorProfile, error)
	ListAuthorProfileIDs(ctx context.Context, afterID int64) ([]int64, error)
	UpsertAuthorProfile(ctx context.Context, profile *identity.AuthorProfile) error
	DeleteAuthorProfile(ctx context.Context, id int64) error

	GetProfileMeta(ctx context.Context, profileID int64, key string) (string, bool, error)
	SetProfileMeta(ctx context.Context, profileID int64, key, value string) error
	DeleteProfileMeta(ctx context.Context, profileID int64, key string) error
	ListProfileMeta(ctx context.Context, profileID int64) ([]identity.ProfileMeta, error)

	FindDisplayGroupByID(ctx context.Context, id int64) (*identity.DisplayGroup, error)
	FindDisplayGroupBySlug(ctx context.Context, slug string) (*identity.DisplayGroup, error)
	ListDisplayGroups(ctx context.Context) ([]*identity.DisplayGroup, error)
	UpsertDisplayGroup(ctx context.Context, group *identity.DisplayGroup) error
	InsertDisplayGroup(ctx context.Context, group *identity.DisplayGroup) (int64, error)
	AllGroupSlugs(ctx context.Context) (map[string]int64, error)
	AllAccountNicenames(ctx context.Context) (map[string]int64, error)

	ListRelationshipsForProfile(ctx context.Context, profileID int64) ([]identity.Relationship, error)
	ListRelationshipsForGroup(ctx context.Context, groupID int64) ([]identity.Relationship, error)
	InsertRelationship(ctx context.Context, rel identity.Relationship) error
	DeleteRelationship(ctx context.Context, rel identity.Relationship) error

	LoadJobState(ctx context.Context, jobID string) ([]byte, error)
	SaveJobState(ctx context.Context, jobID string, state []byte) error
	ArchiveJobState(ctx context.Context, jobID, archivedID string) error
	LatestJobID(ctx context.Context) (string, error)
}
