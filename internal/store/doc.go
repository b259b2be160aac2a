// Package store keeps the history of matrix runs in SQLite.
//
// Every invocation of the run command is a row in runs, identified by a
// UUIDv7 and numbered by a monotonically increasing seq. Every configuration
// outcome is a row in results, keyed by (run_id, seq) and carrying the
// configuration's fingerprint so the same configuration can be followed
// across runs.
//
// # Ordering
//
// All queries order by seq, never by timestamps, with id as a binary
// tie-breaker: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
