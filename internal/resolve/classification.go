// Package resolve turns matcher output into a concrete binding, escalating
// to the decision provider when deterministic rules cannot disambiguate.
package resolve

import "authorfix/internal/match"

// Classification labels the state of one profile after matching.
type Classification string

const (
	// AlreadyConsistent means a single candidate was found and every parity
	// field already agrees; no repair needed.
	AlreadyConsistent Classification = "already_consistent"
	// Resolved means a single candidate was found but values differ; a
	// repair plan follows.
	Resolved Classification = "resolved"
	// Ambiguous means two or more equally ranked candidates from the same
	// pass, unresolvable without an operator.
	Ambiguous Classification = "ambiguous"
	// NotFound means no pass produced any candidate.
	NotFound Classification = "not_found"
)

// Classify labels a candidate set. mismatches is the number of parity fields
// that disagree for the chosen binding; linked reports whether the expected
// relationship row already exists. Both only matter when the candidate set
// itself is unambiguous and non-empty.
func Classify(res match.Result, mismatches int, linked bool) Classification {
	if ambiguousWithin(res.Accounts) || ambiguousWithin(res.Groups) {
		return Ambiguous
	}
	if res.Empty() {
		return NotFound
	}
	if mismatches == 0 && linked {
		return AlreadyConsistent
	}
	return Resolved
}

// ambiguousWithin reports whether two or more candidates share the same pass.
// Candidates from different passes are ranked, not ambiguous.
func ambiguousWithin(candidates []match.Candidate) bool {
	perPass := make(map[match.Pass]int)
	for _, c := range candidates {
		perPass[c.Pass]++
		if perPass[c.Pass] > 1 {
			return true
		}
	}
	return false
}
