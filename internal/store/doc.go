// Package store provides SQLite-backed durable storage for the challenge
// engine.
//
// The store holds:
//   - Challenges and their confirmed days
//   - Social challenges, participant slots and per-participant confirmed days
//   - The per-identity ledger
//   - The transfer journal (one row per settlement leg)
//   - The append-only event log
//   - Settings (the current oracle identity)
//
// # Transactions
//
// Every operation is a method on Tx. Callers group the reads and writes of
// one engine operation with Store.WithTx, so an operation either commits in
// full or leaves every table byte-for-byte unchanged. The handle is limited
// to a single connection, which makes the store single-writer.
//
// # Ordering
//
//   - Challenge ids are sequential from 0; social challenges have their own
//     sequence, also from 0.
//   - Confirmed days are returned in insertion order.
//   - Event seqs are assigned inside the writing transaction and are
//     contiguous from 1.
//
// Records are never deleted.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
