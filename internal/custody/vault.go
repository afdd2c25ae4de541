package custody

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
)

// Vault is an in-process Custodian. It keeps the amount paid back to each
// party, the total burned and every applied instruction in memory.
//
// Thread-safety: all methods are safe for concurrent use.
type Vault struct {
	mu       sync.Mutex
	logger   *slog.Logger
	applied  map[string]Instruction
	order    []string
	returned map[ir.Identity]decimal.Decimal
	burned   decimal.Decimal
}

// NewVault creates an empty vault. A nil logger uses slog.Default().
func NewVault(logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{
		logger:   logger,
		applied:  make(map[string]Instruction),
		returned: make(map[ir.Identity]decimal.Decimal),
		burned:   decimal.Zero,
	}
}

// Execute implements Custodian.
func (v *Vault) Execute(_ context.Context, in Instruction) error {
	if in.Ref == "" || in.Party.IsZero() || !in.Amount.IsPositive() {
		return fmt.Errorf("%w: ref=%q party=%q amount=%s", ErrInvalidInstruction, in.Ref, in.Party, in.Amount)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.applied[in.Ref]; ok {
		v.logger.Debug("transfer already applied", "ref", in.Ref, "receipt_id", in.ReceiptID)
		return nil
	}

	switch in.Kind {
	case ir.TransferReturn:
		prev, ok := v.returned[in.Party]
		if !ok {
			prev = decimal.Zero
		}
		v.returned[in.Party] = prev.Add(in.Amount)
	case ir.TransferBurn:
		v.burned = v.burned.Add(in.Amount)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInstruction, in.Kind)
	}

	v.applied[in.Ref] = in
	v.order = append(v.order, in.Ref)
	v.logger.Info("transfer executed",
		"kind", in.Kind,
		"mode", in.Mode,
		"challenge_id", in.ChallengeID,
		"party", in.Party,
		"amount", in.Amount.String(),
		"receipt_id", in.ReceiptID,
	)
	return nil
}

// Returned is the total paid back to party.
func (v *Vault) Returned(party ir.Identity) decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d, ok := v.returned[party]; ok {
		return d
	}
	return decimal.Zero
}

// Burned is the total destroyed.
func (v *Vault) Burned() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.burned
}

// Instructions returns applied instructions in execution order.
func (v *Vault) Instructions() []Instruction {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Instruction, 0, len(v.order))
	for _, ref := range v.order {
		out = append(out, v.applied[ref])
	}
	return out
}

// Parties returns every party that has been paid, sorted.
func (v *Vault) Parties() []ir.Identity {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]ir.Identity, 0, len(v.returned))
	for id := range v.returned {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
