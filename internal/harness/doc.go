// Package harness runs scripted challenge scenarios against a real engine.
//
// A scenario is a YAML file describing a sequence of operations, clock
// advances and expected outcomes, followed by assertions over the final
// event log, ledger and transfer journal:
//
//	name: personal_full_attendance
//	description: "Two confirmed days return the deposit"
//	config:
//	  start: "2026-10-15T06:30:00Z"
//	steps:
//	  - op: create
//	    as: "0xalice"
//	    args: { deposit: "0.1", wake_up_time: 25200, duration_days: 2 }
//	  - op: confirm
//	    as: "0xalice"
//	    args: { id: 0 }
//	  - advance: 24h
//	  - op: confirm
//	    as: "0xalice"
//	    args: { id: 0 }
//	    expect:
//	      result: { days_completed: 2 }
//	assertions:
//	  - type: event_order
//	    kinds: [ChallengeCreated, WakeUpConfirmed, WakeUpConfirmed]
//	  - type: ledger
//	    identity: "0xalice"
//	    expect: { total_deposited: "0.1" }
//
// Files are checked against a CUE schema before they are decoded, so
// structural mistakes are reported with the offending path.
//
// # Operations
//
//   - create: deposit, wake_up_time, duration_days, value (defaults to deposit)
//   - create_social: participants, deposit_per_participant, wake_up_time,
//     duration_days, value (defaults to deposit times participants)
//   - confirm, finalize, finalize_social: id
//   - confirm_social: id, participant
//   - set_oracle: oracle
//
// A step without expect must succeed. expect.error names the rejection code
// the step must fail with; expect.result is a subset match against the JSON
// form of the returned challenge.
//
// # Assertion Types
//
//   - event_order: kinds appear in the event log in this relative order
//   - event_count: kind appears exactly count times
//   - ledger: the identity's ledger entry matches expect
//   - challenge / social_challenge: challenge id matches expect
//   - transfer_count: count journal legs (optionally of one kind)
//   - audit_clean: the store reconciles without problems
//
// # Determinism
//
// Every scenario runs in a fresh in-memory database with a manual clock, an
// in-memory vault and sequential receipt ids, so the event log of a
// scenario is identical on every run and can be compared against a golden
// file.
package harness
