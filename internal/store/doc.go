// Package store provides SQLite-backed durable storage for ruleflow documents.
//
// The store keeps three kinds of records per (app_id, runtime_id):
//   - Configurations: the latest saved document and its content hash
//   - Action log: every applied action, append-only, ordered by seq
//   - History metadata: version ids, descriptions and hashes (no snapshots)
//
// # Ordering
//
// All action-log queries order by seq, a per-document logical clock, never by
// wall time. Replaying ReadActions over the base document reproduces the
// saved hashes exactly.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Documents and actions are stored as canonical JSON so that stored bytes
// hash the same as the in-memory values they came from.
package store
