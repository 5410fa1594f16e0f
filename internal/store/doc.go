// Package store provides a SQLite archive of resolution runs.
//
// A run records one resolution of a template collection: the collection's
// content hash, the max depth, and every resolved entry with its metadata.
// The template texts themselves are never stored.
//
// # Tables
//
//   - runs: one row per run, ordered by seq (insertion order)
//   - run_entries: one row per resolved key, ordered by ordinal
//
// Writes are idempotent on run id. All reads order by seq or ordinal so
// results are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
