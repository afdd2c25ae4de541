package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Identity names a party: a challenge owner, a social participant, the oracle
// or the admin. Wallet addresses are the usual form.
type Identity string

// NormalizeIdentity trims, NFC-normalizes and lower-cases an identity so that
// "0xAbC" and "0xabc" refer to the same party.
func NormalizeIdentity(s string) Identity {
	return Identity(strings.ToLower(norm.NFC.String(strings.TrimSpace(s))))
}

// IsZero reports whether the identity is empty.
func (id Identity) IsZero() bool {
	return id == ""
}

func (id Identity) String() string {
	return string(id)
}
