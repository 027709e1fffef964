// Package store provides a SQLite-backed memo of realizability verdicts.
//
// A query is identified by the canonical hash of its automaton together
// with the solving mode, the turn and the K range. Solving is deterministic,
// so the first verdict recorded for a query is kept and later writes of the
// same query are ignored.
//
// # Conventions
//
//   - Rows carry a logical seq, never a timestamp. History is ordered by
//     seq ASC, run_id ASC COLLATE BINARY.
//   - Every record names the run that produced it by a UUIDv7 run ID.
//   - Solver statistics are stored as canonical JSON.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
