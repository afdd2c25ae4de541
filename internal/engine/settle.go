package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/custody"
	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/store"
)

// Finalize settles a personal challenge once its end time has passed:
// Completed (deposit returned) if every day was confirmed, Failed (deposit
// burned) otherwise.
//
// Checks run in order: NotFound, Unauthorized (not the owner), NotActive
// (already settled), TooEarly. The custodian is called after every store
// write; if it fails the settlement rolls back with ErrCodeTransferFailed and
// may be retried.
func (e *Engine) Finalize(ctx context.Context, id int64, caller ir.Identity) (*ir.Challenge, error) {
	var settled *ir.Challenge
	var receipt string
	err := e.run(ctx, "finalize", func(ctx context.Context, o *op) error {
		who, err := requireCaller(caller)
		if err != nil {
			return err
		}
		c, err := o.tx.GetChallenge(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("challenge", id)
		}
		if err != nil {
			return err
		}
		if who != c.Owner {
			return newError(ErrCodeUnauthorized, "Not challenge owner")
		}
		if c.Status != ir.StatusActive {
			return newError(ErrCodeNotActive, "Challenge not active")
		}
		if o.now.Before(c.EndTime) {
			return newError(ErrCodeTooEarly, "Challenge ends at %s", c.EndTime.Format("2006-01-02 15:04:05Z07:00"))
		}

		outcome := outcomeFor(c.DaysCompleted, c.DurationDays)
		if err := o.tx.SetChallengeStatus(ctx, id, outcome, o.now); err != nil {
			return err
		}
		at := o.now
		c.Status = outcome
		c.FinalizedAt = &at

		leg, err := e.journal(ctx, o, ir.ModePersonal, id, c.Owner, outcome, c.Deposit)
		if err != nil {
			return err
		}
		receipt = leg.ReceiptID

		if err := o.emit(ctx, ir.Event{
			Kind:        ir.EventChallengeFinalized,
			Mode:        ir.ModePersonal,
			ChallengeID: id,
			Actor:       who,
			Data: map[string]any{
				"outcome":        string(outcome),
				"days_completed": int64(c.DaysCompleted),
				"amount":         c.Deposit.String(),
				"transfer":       string(leg.Kind),
				"receipt_id":     leg.ReceiptID,
			},
		}); err != nil {
			return err
		}

		if err := e.custodian.Execute(ctx, leg); err != nil {
			return transferFailed(err)
		}

		settled = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("challenge finalized",
		"challenge_id", id,
		"outcome", settled.Status,
		"days_completed", settled.DaysCompleted,
		"receipt_id", receipt,
	)
	return settled, nil
}

// FinalizeSocial settles every participant of a social challenge: each
// participant with full attendance gets their share back, every other share
// is burned. Only the creator may settle.
//
// Checks run in order: NotFound, Unauthorized (not the creator), NotActive
// (already settled), TooEarly. All legs are journaled before the first
// custodian call; any custodian failure rolls back the whole settlement.
func (e *Engine) FinalizeSocial(ctx context.Context, id int64, caller ir.Identity) (*ir.SocialChallenge, error) {
	var settled *ir.SocialChallenge
	err := e.run(ctx, "finalize_social", func(ctx context.Context, o *op) error {
		who, err := requireCaller(caller)
		if err != nil {
			return err
		}
		s, err := o.tx.GetSocial(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("social challenge", id)
		}
		if err != nil {
			return err
		}
		if who != s.Creator {
			return newError(ErrCodeUnauthorized, "Not challenge creator")
		}
		if s.Settled {
			return newError(ErrCodeNotActive, "Challenge already settled")
		}
		if o.now.Before(s.EndTime) {
			return newError(ErrCodeTooEarly, "Challenge ends at %s", s.EndTime.Format("2006-01-02 15:04:05Z07:00"))
		}

		outcomes := make(map[ir.Identity]ir.Status, len(s.Participants))
		legs := make([]custody.Instruction, 0, len(s.Participants))
		results := make([]any, 0, len(s.Participants))
		returned, burned := 0, 0
		for i := range s.Participants {
			p := &s.Participants[i]
			p.Outcome = outcomeFor(p.DaysCompleted, s.DurationDays)
			outcomes[p.Identity] = p.Outcome
			if p.Outcome == ir.StatusCompleted {
				returned++
			} else {
				burned++
			}

			leg, err := e.journal(ctx, o, ir.ModeSocial, id, p.Identity, p.Outcome, s.DepositPerParticipant)
			if err != nil {
				return err
			}
			legs = append(legs, leg)
			results = append(results, map[string]any{
				"participant":    string(p.Identity),
				"outcome":        string(p.Outcome),
				"days_completed": int64(p.DaysCompleted),
				"receipt_id":     leg.ReceiptID,
			})
		}
		if err := o.tx.SettleSocial(ctx, id, outcomes, o.now); err != nil {
			return err
		}
		at := o.now
		s.Settled = true
		s.SettledAt = &at

		if err := o.emit(ctx, ir.Event{
			Kind:        ir.EventSocialChallengeSettled,
			Mode:        ir.ModeSocial,
			ChallengeID: id,
			Actor:       who,
			Data: map[string]any{
				"deposit_per_participant": s.DepositPerParticipant.String(),
				"returned":                int64(returned),
				"burned":                  int64(burned),
				"participants":            results,
			},
		}); err != nil {
			return err
		}

		for _, leg := range legs {
			if err := e.custodian.Execute(ctx, leg); err != nil {
				return transferFailed(err)
			}
		}

		settled = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("social challenge settled",
		"challenge_id", id,
		"participants", len(settled.Participants),
	)
	return settled, nil
}

// outcomeFor is Completed only on full attendance.
func outcomeFor(daysCompleted, durationDays int) ir.Status {
	if daysCompleted == durationDays {
		return ir.StatusCompleted
	}
	return ir.StatusFailed
}

// journal writes the ledger delta and transfer journal row for one
// settlement leg and returns the instruction for the custodian.
func (e *Engine) journal(ctx context.Context, o *op, mode ir.Mode, id int64, party ir.Identity, outcome ir.Status, amount decimal.Decimal) (custody.Instruction, error) {
	kind := ir.TransferBurn
	delta := ir.LedgerDelta{Burned: amount, Failed: 1}
	if outcome == ir.StatusCompleted {
		kind = ir.TransferReturn
		delta = ir.LedgerDelta{Returned: amount, Successful: 1}
	}

	if _, err := o.tx.ApplyLedger(ctx, party, delta); err != nil {
		return custody.Instruction{}, err
	}

	in := custody.Instruction{
		Ref:         ir.TransferRef(mode, id, party, kind),
		Kind:        kind,
		Mode:        mode,
		ChallengeID: id,
		Party:       party,
		Amount:      amount,
	}
	in.ReceiptID = e.receipts.Generate(in.Ref)
	if err := o.tx.RecordTransfer(ctx, in.Ref, ir.Transfer{
		ReceiptID:   in.ReceiptID,
		Kind:        kind,
		Mode:        mode,
		ChallengeID: id,
		Party:       party,
		Amount:      amount,
		At:          o.now,
	}); err != nil {
		return custody.Instruction{}, err
	}
	return in, nil
}
