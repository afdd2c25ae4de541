// Package engine implements the stakewake challenge escrow and settlement
// engine.
//
// A user locks a deposit against "wake up on time, N days in a row" and
// either gets it back on full attendance or has it burned. Social
// challenges pool deposits from several participants who each succeed or
// fail on their own; their confirmations are attested by an oracle.
//
// ARCHITECTURE:
//
// Single Writer:
// Every operation takes the engine mutex and runs inside one store
// transaction (store.WithTx). Validation happens before the first write and
// any error rolls the whole operation back, so a rejected call leaves the
// store, the ledger and the event log unchanged.
//
// Operation Flow:
// 1. Read the clock once; the reading is truncated to whole seconds
// 2. Load the record and validate (typed *Error on rejection)
// 3. Write records, ledger deltas, transfer journal rows and events
// 4. Settlement only: hand each leg to the Custodian
// 5. Commit, then publish the committed events to the Dispatcher
//
// A Custodian failure in step 4 aborts the transaction with
// ErrCodeTransferFailed. Legs carry a deterministic Ref so a retry after a
// partial failure cannot pay a party twice.
//
// Time:
// Days are calendar days of an ir.Calendar, not 24-hour spans from the
// challenge start. A challenge created at 23:59 may be confirmed for that
// day and again a minute later for the next day.
package engine
