// Package repair turns a chosen binding into the minimal set of field
// updates that restores the engine's invariants, and applies it.
//
// The Planner derives canonical values (slug cascade, field parity, the
// regenerated legacy descriptor) and diffs them against current state into a
// Plan of per-entity changes. The Executor applies a Plan entity-by-entity:
// the underlying store offers no multi-table transactions, so each write is
// individually idempotent and the executor re-reads and re-validates parity
// after applying. Any field still mismatched afterwards fails the repair for
// that profile.
//
// Slug uniqueness is tracked in an in-memory Registry rebuilt at job start
// and updated on every committed repair. That registry is shared mutable
// state: profiles must be processed strictly sequentially.
package repair
