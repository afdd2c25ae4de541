package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/stakewake/internal/ir"
)

// ErrNotOracle is returned by every Gate when the caller is not trusted.
var ErrNotOracle = errors.New("caller is not an oracle")

// Attestation describes one social confirmation call.
type Attestation struct {
	Caller      ir.Identity
	Oracle      ir.Identity // current oracle setting
	ChallengeID int64
	Participant ir.Identity
}

// Gate authorizes social confirmations.
type Gate interface {
	Authorize(ctx context.Context, a Attestation) error
}

// AddressGate trusts the single identity held in the store's oracle
// setting. Rotating the setting revokes the previous oracle at once.
type AddressGate struct{}

// Authorize implements Gate.
func (AddressGate) Authorize(_ context.Context, a Attestation) error {
	if a.Caller.IsZero() || a.Caller != a.Oracle {
		return fmt.Errorf("%w: %s", ErrNotOracle, a.Caller)
	}
	return nil
}

// AllowListGate trusts a fixed set of identities and ignores the oracle
// setting.
type AllowListGate struct {
	allowed map[ir.Identity]struct{}
}

// NewAllowListGate normalizes ids and drops empty entries.
func NewAllowListGate(ids ...string) *AllowListGate {
	g := &AllowListGate{allowed: make(map[ir.Identity]struct{}, len(ids))}
	for _, raw := range ids {
		id := ir.NormalizeIdentity(raw)
		if id.IsZero() {
			continue
		}
		g.allowed[id] = struct{}{}
	}
	return g
}

// Len returns the number of trusted identities.
func (g *AllowListGate) Len() int {
	return len(g.allowed)
}

// Authorize implements Gate.
func (g *AllowListGate) Authorize(_ context.Context, a Attestation) error {
	if _, ok := g.allowed[a.Caller]; !ok {
		return fmt.Errorf("%w: %s", ErrNotOracle, a.Caller)
	}
	return nil
}
