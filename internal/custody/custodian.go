// Package custody moves locked deposits out of escrow at settlement.
//
// The engine records every settlement leg in its transfer journal and then
// hands the leg to a Custodian as an Instruction. The instruction's Ref is
// derived from (mode, challenge, party, kind), so a Custodian that remembers
// refs can apply a retried settlement without paying twice.
package custody

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
)

// ErrInvalidInstruction is returned for instructions that can never succeed.
var ErrInvalidInstruction = errors.New("invalid transfer instruction")

// Instruction asks a Custodian to return a deposit to its owner or burn it.
type Instruction struct {
	Ref         string
	ReceiptID   string
	Kind        ir.TransferKind
	Mode        ir.Mode
	ChallengeID int64
	Party       ir.Identity
	Amount      decimal.Decimal
}

// Custodian executes settlement transfers. Execute must be idempotent on
// Ref: a second call with an already-applied Ref succeeds without effect.
type Custodian interface {
	Execute(ctx context.Context, in Instruction) error
}
