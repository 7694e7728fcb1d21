package identity

import "time"

// ValidatedMetaKey marks a profile whose bindings were confirmed correct by a
// completed validation pass. Reruns skip tagged profiles unless forced.
const ValidatedMetaKey = "author_term_validated"

// Account is a login-capable identity record.
//
// Invariants: Login is never an email address; Nicename is a URL slug derived
// from DisplayName (or FirstName+LastName).
type Account struct {
	ID          int64
	Login       string
	Nicename    string
	DisplayName string
	Email       string
	FirstName   string
	LastName    string
}

// AuthorProfile is a non-login byline record created by the upstream bulk
// importers. LinkedAccountLogin is a weak reference to Account.Login, not
// ownership: the referenced account may be missing or wrong, which is exactly
// the drift this engine repairs.
type AuthorProfile struct {
	ID                 int64
	DisplayName        string
	Email              string
	LoginSlug          string
	LinkedAccountLogin string
	Description        string
}

// DisplayGroup is a taxonomy grouping expected to correspond 1:1 with exactly
// one AuthorProfile. Description carries the legacy audit descriptor (see
// package descriptor) and must be regenerated on every successful repair.
type DisplayGroup struct {
	ID          int64
	Name        string
	Slug        string
	ParentID    int64
	Description string
}

// Relationship associates an AuthorProfile with its DisplayGroup. Each side
// may appear at most once; multiplicity above one is itself a detected
// inconsistency (a damaged relationship).
type Relationship struct {
	ProfileID int64
	GroupID   int64
}

// ProfileMeta is an arbitrary key/value row attached to an AuthorProfile.
// The engine reads and transfers metadata during duplicate-profile merges and
// writes the validated tag, but otherwise treats it as opaque.
type ProfileMeta struct {
	ProfileID int64
	Key       string
	Value     string
	UpdatedAt time.Time
}
