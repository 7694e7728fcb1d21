package repair

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"authorfix/internal/identity"
)

// EntityKind names the record set a change applies to.
type EntityKind string

const (
	EntityAccount EntityKind = "account"
	EntityProfile EntityKind = "profile"
	EntityGroup   EntityKind = "group"
)

// Change is one field-level update within a plan.
type Change struct {
	Entity   EntityKind `json:"entity"`
	EntityID int64      `json:"entity_id"`
	Field    string     `json:"field"`
	Old      string     `json:"old"`
	New      string     `json:"new"`
}

// MetaTransfer copies one metadata row onto the canonical profile during a
// duplicate-profile merge.
type MetaTransfer struct {
	ProfileID int64
	Key       string
	Value     string
}

// Plan is the ordered, minimal diff that satisfies the invariants for one
// profile. Binding holds the canonical post-repair snapshots; Changes records
// which fields actually differ for audit and idempotent application.
type Plan struct {
	Binding             Binding
	Changes             []Change
	InsertRelationships []identity.Relationship
	DeleteRelationships []identity.Relationship
	MetaTransfers       []MetaTransfer
	// DeleteProfileID is the duplicate profile removed by a merge, 0 if none.
	DeleteProfileID int64
}

// Empty reports whether applying the plan would write nothing.
func (p *Plan) Empty() bool {
	return p == nil || (len(p.Changes) == 0 &&
		len(p.InsertRelationships) == 0 &&
		len(p.DeleteRelationships) == 0 &&
		len(p.MetaTransfers) == 0 &&
		p.DeleteProfileID == 0)
}

// ChangesFor returns the subset of changes targeting one entity.
func (p *Plan) ChangesFor(kind EntityKind, id int64) []Change {
	var out []Change
	for _, change := range p.Changes {
		if change.Entity == kind && change.EntityID == id {
			out = append(out, change)
		}
	}
	return out
}

// Unified renders the plan as a unified diff of current vs canonical field
// lines for operator display and the audit trail.
func (p *Plan) Unified() string {
	if p.Empty() {
		return ""
	}
	var before, after []string
	for _, change := range p.Changes {
		line := fmt.Sprintf("%s[%d].%s = ", change.Entity, change.EntityID, change.Field)
		before = append(before, line+change.Old+"\n")
		after = append(after, line+change.New+"\n")
	}
	for _, rel := range p.DeleteRelationships {
		before = append(before, fmt.Sprintf("relationship(%d, %d)\n", rel.ProfileID, rel.GroupID))
	}
	for _, rel := range p.InsertRelationships {
		after = append(after, fmt.Sprintf("relationship(%d, %d)\n", rel.ProfileID, rel.GroupID))
	}
	if p.DeleteProfileID != 0 {
		before = append(before, fmt.Sprintf("profile(%d)\n", p.DeleteProfileID))
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: "current",
		ToFile:   "canonical",
		Context:  3,
	})
	if err != nil {
		// Fall back to a flat listing; diff rendering is presentation only.
		return strings.Join(append(before, after...), "")
	}
	return text
}
