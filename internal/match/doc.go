// Package match proposes candidate partners for under-linked author records.
//
// Given a profile (plus the legacy descriptor text of any group already
// associated with it), the Matcher runs a fixed sequence of passes per entity
// type and stops at the first pass that yields candidates:
//
//  1. exact email match
//  2. exact login/slug match
//  3. descriptor-embedded identifier match (numeric id or email recovered
//     from the legacy descriptor string)
//  4. fuzzy name match over group descriptors
//
// Every candidate records its originating pass so the resolution policy can
// tell deterministic evidence from fuzzy evidence: fuzzy candidates exist
// only to be surfaced during escalation and are never bound automatically.
package match
