package identity

import "errors"

var (
	// ErrAmbiguousMatch marks situations where two or more equally ranked
	// candidates exist and no deterministic rule can pick one.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrNotFound marks profiles with zero candidates across all passes.
	ErrNotFound = errors.New("no candidate found")
	// ErrInconsistent marks bindings whose fields disagree; it drives a
	// repair rather than a failure unless the repair itself fails.
	ErrInconsistent = errors.New("inconsistent binding")
	// ErrDuplicateSlug marks a canonical slug that would collide with a slug
	// already owned by a different group.
	ErrDuplicateSlug = errors.New("duplicate slug")
	// ErrRepairFailed marks a repair whose writes failed or whose post-apply
	// re-validation still shows mismatched fields. Fatal for the profile,
	// not the job.
	ErrRepairFailed = errors.New("repair application failed")
	// ErrOperatorHalt is returned when the operator explicitly aborts an
	// escalation. It terminates the whole run without persisting the
	// in-flight diff.
	ErrOperatorHalt = errors.New("operator halt")
)

// IssueKind classifies a per-profile outcome for the job audit trail.
type IssueKind string

const (
	IssueAmbiguousMatch IssueKind = "ambiguous_match"
	IssueNotFound       IssueKind = "not_found"
	IssueInconsistent   IssueKind = "inconsistent"
	IssueDuplicateSlug  IssueKind = "duplicate_slug"
	IssueRepairFailure  IssueKind = "repair_failure"
	IssueOperatorHalt   IssueKind = "operator_halt"
)

// KindForError maps an engine error to the issue kind persisted in the audit
// trail. Unknown errors classify as repair failures so they surface in the
// not-validated list rather than disappearing.
func KindForError(err error) IssueKind {
	switch {
	case errors.Is(err, ErrAmbiguousMatch):
		return IssueAmbiguousMatch
	case errors.Is(err, ErrNotFound):
		return IssueNotFound
	case errors.Is(err, ErrInconsistent):
		return IssueInconsistent
	case errors.Is(err, ErrDuplicateSlug):
		return IssueDuplicateSlug
	case errors.Is(err, ErrOperatorHalt):
		return IssueOperatorHalt
	default:
		return IssueRepairFailure
	}
}

// Fatal reports whether an error must abort the entire run instead of being
// recorded against a single profile.
func Fatal(err error) bool {
	return errors.Is(err, ErrOperatorHalt)
}

// PerRecord reports whether an error describes a condition in one profile's
// records. Anything outside this taxonomy, repository failures above all,
// indicts the run rather than the profile.
func PerRecord(err error) bool {
	return errors.Is(err, ErrAmbiguousMatch) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInconsistent) ||
		errors.Is(err, ErrDuplicateSlug) ||
		errors.Is(err, ErrRepairFailed)
}
