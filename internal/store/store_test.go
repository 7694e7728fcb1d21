package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"authorfix/internal/identity"
	"authorfix/internal/store"
	"authorfix/internal/testsupport"
)

func TestAccountRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	account := identity.Account{
		ID: 9, Login: "jane9f3", Nicename: "jane-doe",
		DisplayName: "Jane Doe", Email: "jane@example.com",
		FirstName: "Jane", LastName: "Doe",
	}
	if err := st.UpsertAccount(ctx, &account); err != nil {
		t.Fatalf("UpsertAccount: %v", err)
	}

	byID, err := st.FindAccountByID(ctx, 9)
	if err != nil {
		t.Fatalf("FindAccountByID: %v", err)
	}
	if byID == nil || byID.Login != "jane9f3" {
		t.Fatalf("unexpected account: %#v", byID)
	}

	byLogin, err := st.FindAccountByLogin(ctx, "jane9f3")
	if err != nil || byLogin == nil || byLogin.ID != 9 {
		t.Fatalf("FindAccountByLogin: %v %#v", err, byLogin)
	}
	byNicename, err := st.FindAccountByNicename(ctx, "jane-doe")
	if err != nil || byNicename == nil || byNicename.ID != 9 {
		t.Fatalf("FindAccountByNicename: %v %#v", err, byNicename)
	}

	missing, err := st.FindAccountByID(ctx, 404)
	if err != nil {
		t.Fatalf("FindAccountByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing account, got %#v", missing)
	}

	account.Email = "jane.doe@example.com"
	if err := st.UpsertAccount(ctx, &account); err != nil {
		t.Fatalf("second UpsertAccount: %v", err)
	}
	updated, _ := st.FindAccountByID(ctx, 9)
	if updated.Email != "jane.doe@example.com" {
		t.Fatalf("upsert did not update email: %q", updated.Email)
	}
}

func TestFindAccountsByEmailReturnsAllOrdered(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.SeedAccount(t, st, identity.Account{ID: 12, Login: "b", Email: "shared@example.com"})
	testsupport.SeedAccount(t, st, identity.Account{ID: 5, Login: "a", Email: "shared@example.com"})

	accounts, err := st.FindAccountsByEmail(ctx, "shared@example.com")
	if err != nil {
		t.Fatalf("FindAccountsByEmail: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != 5 || accounts[1].ID != 12 {
		t.Fatalf("unexpected accounts: %#v", accounts)
	}
}

func TestProfileCursorOrdering(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, id := range []int64{503, 501, 502} {
		testsupport.SeedProfile(t, st, identity.AuthorProfile{ID: id, DisplayName: "P"})
	}

	ids, err := st.ListAuthorProfileIDs(ctx, 0)
	if err != nil {
		t.Fatalf("ListAuthorProfileIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 501 || ids[2] != 503 {
		t.Fatalf("unexpected ordering: %v", ids)
	}

	resumed, err := st.ListAuthorProfileIDs(ctx, 501)
	if err != nil {
		t.Fatalf("ListAuthorProfileIDs after cursor: %v", err)
	}
	if len(resumed) != 2 || resumed[0] != 502 {
		t.Fatalf("cursor resume wrong: %v", resumed)
	}
}

func TestRelationshipsAllowAndReportDuplicates(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	rel := identity.Relationship{ProfileID: 501, GroupID: 77}
	if err := st.InsertRelationship(ctx, rel); err != nil {
		t.Fatalf("InsertRelationship: %v", err)
	}
	// Same pairing again is a no-op.
	if err := st.InsertRelationship(ctx, rel); err != nil {
		t.Fatalf("repeat InsertRelationship: %v", err)
	}
	if err := st.InsertRelationship(ctx, identity.Relationship{ProfileID: 501, GroupID: 78}); err != nil {
		t.Fatalf("InsertRelationship second group: %v", err)
	}

	rels, err := st.ListRelationshipsForProfile(ctx, 501)
	if err != nil {
		t.Fatalf("ListRelationshipsForProfile: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 relationships, got %#v", rels)
	}

	if err := st.DeleteRelationship(ctx, identity.Relationship{ProfileID: 501, GroupID: 78}); err != nil {
		t.Fatalf("DeleteRelationship: %v", err)
	}
	rels, _ = st.ListRelationshipsForProfile(ctx, 501)
	if len(rels) != 1 || rels[0].GroupID != 77 {
		t.Fatalf("unexpected relationships after delete: %#v", rels)
	}

	byGroup, err := st.ListRelationshipsForGroup(ctx, 77)
	if err != nil || len(byGroup) != 1 {
		t.Fatalf("ListRelationshipsForGroup: %v %#v", err, byGroup)
	}
}

func TestProfileMetaLifecycle(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, ok, err := st.GetProfileMeta(ctx, 501, "twitter"); err != nil || ok {
		t.Fatalf("expected missing meta, got ok=%v err=%v", ok, err)
	}
	if err := st.SetProfileMeta(ctx, 501, "twitter", "@jane"); err != nil {
		t.Fatalf("SetProfileMeta: %v", err)
	}
	if err := st.SetProfileMeta(ctx, 501, "twitter", "@janedoe"); err != nil {
		t.Fatalf("overwrite SetProfileMeta: %v", err)
	}
	value, ok, err := st.GetProfileMeta(ctx, 501, "twitter")
	if err != nil || !ok || value != "@janedoe" {
		t.Fatalf("GetProfileMeta: %q %v %v", value, ok, err)
	}

	if err := st.SetProfileMeta(ctx, 501, identity.ValidatedMetaKey, "1"); err != nil {
		t.Fatalf("SetProfileMeta validated: %v", err)
	}
	metas, err := st.ListProfileMeta(ctx, 501)
	if err != nil || len(metas) != 2 {
		t.Fatalf("ListProfileMeta: %v %#v", err, metas)
	}

	if err := st.DeleteProfileMeta(ctx, 501, "twitter"); err != nil {
		t.Fatalf("DeleteProfileMeta: %v", err)
	}
	if _, ok, _ := st.GetProfileMeta(ctx, 501, "twitter"); ok {
		t.Fatal("meta not deleted")
	}
}

func TestDeleteAuthorProfileRemovesMeta(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.SeedProfile(t, st, identity.AuthorProfile{ID: 502, DisplayName: "Dup"})
	if err := st.SetProfileMeta(ctx, 502, "twitter", "@dup"); err != nil {
		t.Fatalf("SetProfileMeta: %v", err)
	}
	if err := st.DeleteAuthorProfile(ctx, 502); err != nil {
		t.Fatalf("DeleteAuthorProfile: %v", err)
	}
	if p, _ := st.FindAuthorProfile(ctx, 502); p != nil {
		t.Fatalf("profile not deleted: %#v", p)
	}
	if metas, _ := st.ListProfileMeta(ctx, 502); len(metas) != 0 {
		t.Fatalf("meta rows survived delete: %#v", metas)
	}
}

func TestAllGroupSlugsKeepsLowestID(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.SeedGroup(t, st, identity.DisplayGroup{ID: 80, Slug: "cap-jane-doe"})
	testsupport.SeedGroup(t, st, identity.DisplayGroup{ID: 77, Slug: "cap-jane-doe"})
	testsupport.SeedGroup(t, st, identity.DisplayGroup{ID: 78, Slug: "cap-bob"})

	slugs, err := st.AllGroupSlugs(ctx)
	if err != nil {
		t.Fatalf("AllGroupSlugs: %v", err)
	}
	if slugs["cap-jane-doe"] != 77 {
		t.Fatalf("duplicate slug should map to lowest id, got %d", slugs["cap-jane-doe"])
	}
	if slugs["cap-bob"] != 78 {
		t.Fatalf("unexpected slug map: %#v", slugs)
	}
}

func TestJobStateLifecycle(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if state, err := st.LoadJobState(ctx, "validate-2026-08-28"); err != nil || state != nil {
		t.Fatalf("expected no state, got %q err=%v", state, err)
	}

	if err := st.SaveJobState(ctx, "validate-2026-08-28", []byte(`{"status":"started"}`)); err != nil {
		t.Fatalf("SaveJobState: %v", err)
	}
	if err := st.SaveJobState(ctx, "validate-2026-08-28", []byte(`{"status":"completed"}`)); err != nil {
		t.Fatalf("second SaveJobState: %v", err)
	}

	state, err := st.LoadJobState(ctx, "validate-2026-08-28")
	if err != nil || string(state) != `{"status":"completed"}` {
		t.Fatalf("LoadJobState: %q %v", state, err)
	}

	latest, err := st.LatestJobID(ctx)
	if err != nil || latest != "validate-2026-08-28" {
		t.Fatalf("LatestJobID: %q %v", latest, err)
	}

	if err := st.ArchiveJobState(ctx, "validate-2026-08-28", "validate-2026-08-28-run1"); err != nil {
		t.Fatalf("ArchiveJobState: %v", err)
	}
	if state, _ := st.LoadJobState(ctx, "validate-2026-08-28"); state != nil {
		t.Fatal("original id should be free after archive")
	}
	if state, _ := st.LoadJobState(ctx, "validate-2026-08-28-run1"); string(state) != `{"status":"completed"}` {
		t.Fatalf("archived state lost: %q", state)
	}

	if err := st.ArchiveJobState(ctx, "missing-job", "x"); err == nil {
		t.Fatal("expected error archiving unknown job")
	}
}

func TestOpenStampsAndVerifiesSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "authorfix.db")

	st, err := store.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening an already-stamped database succeeds without error.
	st, err = store.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if _, err := st.ListDisplayGroups(context.Background()); err != nil {
		t.Fatalf("ListDisplayGroups after reopen: %v", err)
	}
}

func TestOpenRefusesForeignDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "other.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create foreign table: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	// Tables without a version stamp mean the file belongs to something else.
	if _, err := store.OpenPath(dbPath); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}
