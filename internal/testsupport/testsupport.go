// Package testsupport provides shared helpers for engine tests: temp-dir
// configs, stores, and corpus seeding.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"authorfix/internal/config"
	"authorfix/internal/identity"
	"authorfix/internal/store"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	return &cfg
}

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedAccount upserts an account, failing the test on error.
func SeedAccount(t testing.TB, st *store.Store, account identity.Account) {
	t.Helper()
	if err := st.UpsertAccount(context.Background(), &account); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}
}

// SeedProfile upserts an author profile, failing the test on error.
func SeedProfile(t testing.TB, st *store.Store, profile identity.AuthorProfile) {
	t.Helper()
	if err := st.UpsertAuthorProfile(context.Background(), &profile); err != nil {
		t.Fatalf("UpsertAuthorProfile: %v", err)
	}
}

// SeedGroup upserts a display group, failing the test on error.
func SeedGroup(t testing.TB, st *store.Store, group identity.DisplayGroup) {
	t.Helper()
	if err := st.UpsertDisplayGroup(context.Background(), &group); err != nil {
		t.Fatalf("UpsertDisplayGroup: %v", err)
	}
}

// SeedRelationship inserts a relationship, failing the test on error.
func SeedRelationship(t testing.TB, st *store.Store, profileID, groupID int64) {
	t.Helper()
	rel := identity.Relationship{ProfileID: profileID, GroupID: groupID}
	if err := st.InsertRelationship(context.Background(), rel); err != nil {
		t.Fatalf("InsertRelationship: %v", err)
	}
}
