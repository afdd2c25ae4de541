// Package oracle decides who may attest a social participant's wake-up.
//
// A Gate is a capability: the engine hands it an Attestation describing the
// call and the Gate answers nil (allowed) or an error (denied). Gates never
// touch storage; the engine reads the current oracle identity inside the
// operation's transaction and passes it in.
//
// Three gates are provided:
//   - AddressGate: exactly one oracle identity, rotatable by the admin
//   - AllowListGate: a fixed set of trusted oracles
//   - RegoGate: an OPA policy evaluated per call
package oracle
