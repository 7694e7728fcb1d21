// Package identity defines the three record sets the repair engine reconciles
// and the error taxonomy shared across the engine.
//
// Accounts are login-capable identities, AuthorProfiles are non-login byline
// records, and DisplayGroups are the taxonomy groupings that should pair 1:1
// with profiles. Years of repeated bulk imports leave these sets with missing
// links, duplicate slugs, mismatched emails, and orphaned profiles; the rest
// of the repository exists to detect and repair that drift.
//
// The engine never creates accounts, profiles, or groups on its own. It only
// mutates fields and relationship rows to restore the invariants documented
// on each type, and tags profiles it has confirmed correct so reruns are
// cheap and idempotent.
package identity
