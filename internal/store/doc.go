// Package store persists the reconciled entity sets and validation job state
// in SQLite and exposes the Repository interface the engine consumes.
//
// The Store manages the database connection, schema initialization, entity
// CRUD, relationship rows, profile metadata, and the per-run job state used
// for crash-safe resumability. The underlying table set mirrors the shared
// relational store of the surrounding content platform: no multi-table
// transactions are assumed, so repairs are applied entity-by-entity.
//
// Relationships deliberately carry no uniqueness constraint; duplicate rows
// exist in imported data and must be representable so the engine can detect
// and delete them.
//
// Treat this package as the single source of truth for persistence semantics;
// schema changes bump the version in schema.go.
package store
