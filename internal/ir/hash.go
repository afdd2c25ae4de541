package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent    = "stakewake/event/v1"
	DomainTransfer = "stakewake/transfer/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of an event.
// The ID is stable across restarts given the same event fields.
func EventID(e Event) (string, error) {
	canonical, err := MarshalCanonical(e.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// TransferRef computes the idempotency reference handed to a custodian for
// one settlement leg. The same leg always yields the same reference, so a
// custodian can detect a replayed transfer after a rolled-back settlement.
func TransferRef(mode Mode, challengeID int64, party Identity, kind TransferKind) string {
	canonical, err := MarshalCanonical(map[string]any{
		"mode":         string(mode),
		"challenge_id": challengeID,
		"party":        party,
		"kind":         string(kind),
	})
	if err != nil {
		// Every field is a string or int64; marshaling cannot fail.
		panic(fmt.Sprintf("TransferRef: %v", err))
	}
	return hashWithDomain(DomainTransfer, canonical)
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(e Event) string {
	id, err := EventID(e)
	if err != nil {
		panic(err)
	}
	return id
}
