package repair

import (
	"fmt"

	"authorfix/internal/identity"
	"authorfix/internal/slugify"
)

// Binding is a chosen (Account?, AuthorProfile, DisplayGroup) triple. Account
// is optional: standalone profiles have none. Group is nil only on the
// operator-confirmed synthesis path, where the planner creates one.
type Binding struct {
	Account *identity.Account
	Profile *identity.AuthorProfile
	Group   *identity.DisplayGroup
}

// Mismatch describes one violated parity rule between two bound entities.
type Mismatch struct {
	Field string
	Left  string
	Right string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %q != %q", m.Field, m.Left, m.Right)
}

// Parity checks the field parity rules over a binding's current values:
// profile display name against group name, unprefixed slugs across all three
// records, emails, and the weak account reference. Used both to recognize
// already-consistent bindings and to re-validate after a repair is applied.
func Parity(b Binding, slugPrefix string) []Mismatch {
	var mismatches []Mismatch
	if b.Profile == nil {
		return mismatches
	}

	profileSlug := slugify.StripPrefix(b.Profile.LoginSlug, slugPrefix)

	if b.Group != nil {
		if b.Profile.DisplayName != b.Group.Name {
			mismatches = append(mismatches, Mismatch{"display_name", b.Profile.DisplayName, b.Group.Name})
		}
		groupSlug := slugify.StripPrefix(b.Group.Slug, slugPrefix)
		if profileSlug != groupSlug {
			mismatches = append(mismatches, Mismatch{"slug", profileSlug, groupSlug})
		}
	}

	if b.Account != nil {
		if profileSlug != b.Account.Nicename {
			mismatches = append(mismatches, Mismatch{"nicename", profileSlug, b.Account.Nicename})
		}
		if b.Profile.Email != b.Account.Email {
			mismatches = append(mismatches, Mismatch{"email", b.Profile.Email, b.Account.Email})
		}
		if b.Profile.LinkedAccountLogin != b.Account.Login {
			mismatches = append(mismatches, Mismatch{"linked_account", b.Profile.LinkedAccountLogin, b.Account.Login})
		}
	}
	return mismatches
}
