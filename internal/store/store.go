package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"authorfix/internal/config"
	"authorfix/internal/identity"
)

// Store manages entity and job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ Repository = (*Store)(nil)

// Open initializes or connects to the entity database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to a database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const accountColumns = "id, login, nicename, display_name, email, first_name, last_name"

// FindAccountByID fetches an account by identifier.
func (s *Store) FindAccountByID(ctx context.Context, id int64) (*identity.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// FindAccountByLogin fetches an account by its unique login.
func (s *Store) FindAccountByLogin(ctx context.Context, login string) (*identity.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE login = ?`, login)
	return scanAccount(row)
}

// FindAccountByNicename fetches the first account holding a nicename slug.
func (s *Store) FindAccountByNicename(ctx context.Context, nicename string) (*identity.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE nicename = ? ORDER BY id LIMIT 1`, nicename)
	return scanAccount(row)
}

// FindAccountsByEmail returns all accounts sharing an email, ordered by id.
// Shared emails are the classic ambiguity source, so callers get the full set.
func (s *Store) FindAccountsByEmail(ctx context.Context, email string) ([]*identity.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ? ORDER BY id`, email)
	if err != nil {
		return nil, fmt.Errorf("query accounts by email: %w", err)
	}
	defer rows.Close()

	var accounts []*identity.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpsertAccount inserts or updates an account keyed by id.
func (s *Store) UpsertAccount(ctx context.Context, account *identity.Account) error {
	if account == nil {
		return errors.New("account is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, login, nicename, display_name, email, first_name, last_name)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             login = excluded.login, nicename = excluded.nicename,
             display_name = excluded.display_name, email = excluded.email,
             first_name = excluded.first_name, last_name = excluded.last_name`,
		account.ID, account.Login, account.Nicename, account.DisplayName,
		account.Email, account.FirstName, account.LastName,
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

const profileColumns = "id, display_name, email, login_slug, linked_account_login, description"

// FindAuthorProfile fetches a profile by identifier.
func (s *Store) FindAuthorProfile(ctx context.Context, id int64) (*identity.AuthorProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM author_profiles WHERE id = ?`, id)
	return scanProfile(row)
}

// FindAuthorProfilesByEmail returns all profiles sharing an email, ordered by id.
func (s *Store) FindAuthorProfilesByEmail(ctx context.Context, email string) ([]*identity.AuthorProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM author_profiles WHERE email = ? ORDER BY id`, email)
	if err != nil {
		return nil, fmt.Errorf("query profiles by email: %w", err)
	}
	defer rows.Close()

	var profiles []*identity.AuthorProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// ListAuthorProfileIDs returns profile ids greater than afterID in ascending
// order. The fixed ordering is what makes the job cursor meaningful.
func (s *Store) ListAuthorProfileIDs(ctx context.Context, afterID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM author_profiles WHERE id > ? ORDER BY id`, afterID)
	if err != nil {
		return nil, fmt.Errorf("list profile ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertAuthorProfile inserts or updates a profile keyed by id.
func (s *Store) UpsertAuthorProfile(ctx context.Context, profile *identity.AuthorProfile) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO author_profiles (id, display_name, email, login_slug, linked_account_login, description)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             display_name = excluded.display_name, email = excluded.email,
             login_slug = excluded.login_slug,
             linked_account_login = excluded.linked_account_login,
             description = excluded.description`,
		profile.ID, profile.DisplayName, profile.Email, profile.LoginSlug,
		profile.LinkedAccountLogin, profile.Description,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// DeleteAuthorProfile removes a profile and its metadata rows.
func (s *Store) DeleteAuthorProfile(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile_meta WHERE profile_id = ?`, id); err != nil {
		return fmt.Errorf("delete profile meta: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM author_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

const groupColumns = "id, name, slug, parent_id, description"

// FindDisplayGroupByID fetches a display group by identifier.
func (s *Store) FindDisplayGroupByID(ctx context.Context, id int64) (*identity.DisplayGroup, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM display_groups WHERE id = ?`, id)
	return scanGroup(row)
}

// FindDisplayGroupBySlug fetches the first group holding a slug.
func (s *Store) FindDisplayGroupBySlug(ctx context.Context, slug string) (*identity.DisplayGroup, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM display_groups WHERE slug = ? ORDER BY id LIMIT 1`, slug)
	return scanGroup(row)
}

// ListDisplayGroups returns every group ordered by id. The corpus is scanned
// in full during descriptor and fuzzy matching passes.
func (s *Store) ListDisplayGroups(ctx context.Context) ([]*identity.DisplayGroup, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM display_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list display groups: %w", err)
	}
	defer rows.Close()

	var groups []*identity.DisplayGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// UpsertDisplayGroup inserts or updates a group keyed by id.
func (s *Store) UpsertDisplayGroup(ctx context.Context, group *identity.DisplayGroup) error {
	if group == nil {
		return errors.New("group is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO display_groups (id, name, slug, parent_id, description)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name, slug = excluded.slug,
             parent_id = excluded.parent_id, description = excluded.description`,
		group.ID, group.Name, group.Slug, group.ParentID, group.Description,
	)
	if err != nil {
		return fmt.Errorf("upsert group: %w", err)
	}
	return nil
}

// InsertDisplayGroup inserts a group with a store-assigned identifier. Used
// only by the operator-confirmed standalone synthesis path.
func (s *Store) InsertDisplayGroup(ctx context.Context, group *identity.DisplayGroup) (int64, error) {
	if group == nil {
		return 0, errors.New("group is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO display_groups (name, slug, parent_id, description) VALUES (?, ?, ?, ?)`,
		group.Name, group.Slug, group.ParentID, group.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	group.ID = id
	return id, nil
}

// AllGroupSlugs returns every group slug mapped to its owning group id.
// Duplicate slugs keep the lowest id, matching the repair engine's
// lower-id-wins canonicalization.
func (s *Store) AllGroupSlugs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, id FROM display_groups WHERE slug != '' ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list group slugs: %w", err)
	}
	defer rows.Close()

	slugs := make(map[string]int64)
	for rows.Next() {
		var slug string
		var id int64
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, err
		}
		slugs[slug] = id
	}
	return slugs, rows.Err()
}

// AllAccountNicenames returns every account nicename mapped to its account id.
func (s *Store) AllAccountNicenames(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT nicename, id FROM accounts WHERE nicename != '' ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list account nicenames: %w", err)
	}
	defer rows.Close()

	nicenames := make(map[string]int64)
	for rows.Next() {
		var nicename string
		var id int64
		if err := rows.Scan(&nicename, &id); err != nil {
			return nil, err
		}
		nicenames[nicename] = id
	}
	return nicenames, rows.Err()
}

func scanAccount(scanner interface{ Scan(dest ...any) error }) (*identity.Account, error) {
	var a identity.Account
	err := scanner.Scan(&a.ID, &a.Login, &a.Nicename, &a.DisplayName, &a.Email, &a.FirstName, &a.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func scanProfile(scanner interface{ Scan(dest ...any) error }) (*identity.AuthorProfile, error) {
	var p identity.AuthorProfile
	err := scanner.Scan(&p.ID, &p.DisplayName, &p.Email, &p.LoginSlug, &p.LinkedAccountLogin, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func scanGroup(scanner interface{ Scan(dest ...any) error }) (*identity.DisplayGroup, error) {
	var g identity.DisplayGroup
	err := scanner.Scan(&g.ID, &g.Name, &g.Slug, &g.ParentID, &g.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return &g, nil
}
