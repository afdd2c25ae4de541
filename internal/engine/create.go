package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
)

// MinParticipants is the smallest social challenge.
const MinParticipants = 2

// CreateRequest opens a personal challenge. Attached is the value actually
// transferred into custody with the call and must equal Deposit exactly.
type CreateRequest struct {
	Owner        ir.Identity
	Deposit      decimal.Decimal
	WakeUpTime   int64
	DurationDays int
	Attached     decimal.Decimal
}

// CreateSocialRequest opens a social challenge funded by Creator for every
// participant. Attached must equal DepositPerParticipant times the number of
// participants.
type CreateSocialRequest struct {
	Creator               ir.Identity
	Participants          []ir.Identity
	DepositPerParticipant decimal.Decimal
	WakeUpTime            int64
	DurationDays          int
	Attached              decimal.Decimal
}

// Create locks a deposit and opens a personal challenge starting now. With
// wake-up deadlines enforced, the first day must still be confirmable.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*ir.Challenge, error) {
	var created *ir.Challenge
	err := e.run(ctx, "create", func(ctx context.Context, o *op) error {
		owner, err := requireCaller(req.Owner)
		if err != nil {
			return err
		}
		if err := e.validateTerms(req.Deposit, req.WakeUpTime, req.DurationDays); err != nil {
			return err
		}
		if !req.Attached.Equal(req.Deposit) {
			return newError(ErrCodeIncorrectDeposit, "Incorrect deposit amount")
		}
		if err := e.checkDeadline(e.calendar.DayOf(o.now), req.WakeUpTime, o.now); err != nil {
			return err
		}

		id, err := o.tx.NextChallengeID(ctx)
		if err != nil {
			return err
		}
		c := &ir.Challenge{
			ID:            id,
			Owner:         owner,
			Deposit:       req.Deposit,
			WakeUpTime:    req.WakeUpTime,
			DurationDays:  req.DurationDays,
			StartTime:     o.now,
			EndTime:       endTime(o.now, req.DurationDays),
			StartDay:      e.calendar.DayOf(o.now),
			ConfirmedDays: []ir.DayIndex{},
			Status:        ir.StatusActive,
		}
		if err := o.tx.InsertChallenge(ctx, c); err != nil {
			return err
		}
		if _, err := o.tx.ApplyLedger(ctx, owner, ir.LedgerDelta{Deposited: c.Deposit}); err != nil {
			return err
		}
		if err := o.emit(ctx, ir.Event{
			Kind:        ir.EventChallengeCreated,
			Mode:        ir.ModePersonal,
			ChallengeID: id,
			Actor:       owner,
			Data: map[string]any{
				"deposit":       c.Deposit.String(),
				"wake_up_time":  c.WakeUpTime,
				"duration_days": int64(c.DurationDays),
				"start_day":     c.StartDay,
				"end_time":      c.EndTime.Unix(),
			},
		}); err != nil {
			return err
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("challenge created",
		"challenge_id", created.ID,
		"owner", created.Owner,
		"deposit", created.Deposit.String(),
		"duration_days", created.DurationDays,
	)
	return created, nil
}

// CreateSocial locks the pooled deposit and opens a social challenge.
func (e *Engine) CreateSocial(ctx context.Context, req CreateSocialRequest) (*ir.SocialChallenge, error) {
	var created *ir.SocialChallenge
	err := e.run(ctx, "create_social", func(ctx context.Context, o *op) error {
		creator, err := requireCaller(req.Creator)
		if err != nil {
			return err
		}
		participants, err := normalizeParticipants(req.Participants)
		if err != nil {
			return err
		}
		if err := e.validateTerms(req.DepositPerParticipant, req.WakeUpTime, req.DurationDays); err != nil {
			return err
		}
		pool := req.DepositPerParticipant.Mul(decimal.NewFromInt(int64(len(participants))))
		if !req.Attached.Equal(pool) {
			return newError(ErrCodeIncorrectDeposit, "Incorrect deposit amount")
		}
		if err := e.checkDeadline(e.calendar.DayOf(o.now), req.WakeUpTime, o.now); err != nil {
			return err
		}

		id, err := o.tx.NextSocialID(ctx)
		if err != nil {
			return err
		}
		s := &ir.SocialChallenge{
			ID:                    id,
			Creator:               creator,
			DepositPerParticipant: req.DepositPerParticipant,
			TotalPool:             pool,
			WakeUpTime:            req.WakeUpTime,
			DurationDays:          req.DurationDays,
			StartTime:             o.now,
			EndTime:               endTime(o.now, req.DurationDays),
			StartDay:              e.calendar.DayOf(o.now),
			Participants:          make([]ir.Participant, 0, len(participants)),
		}
		members := make([]any, 0, len(participants))
		for _, p := range participants {
			s.Participants = append(s.Participants, ir.Participant{
				Identity:      p,
				ConfirmedDays: []ir.DayIndex{},
				Outcome:       ir.StatusActive,
			})
			members = append(members, string(p))
		}
		if err := o.tx.InsertSocial(ctx, s); err != nil {
			return err
		}
		for _, p := range participants {
			if _, err := o.tx.ApplyLedger(ctx, p, ir.LedgerDelta{Deposited: s.DepositPerParticipant}); err != nil {
				return err
			}
		}
		if err := o.emit(ctx, ir.Event{
			Kind:        ir.EventSocialChallengeCreated,
			Mode:        ir.ModeSocial,
			ChallengeID: id,
			Actor:       creator,
			Data: map[string]any{
				"deposit_per_participant": s.DepositPerParticipant.String(),
				"total_pool":              s.TotalPool.String(),
				"participants":            members,
				"wake_up_time":            s.WakeUpTime,
				"duration_days":           int64(s.DurationDays),
				"start_day":               s.StartDay,
				"end_time":                s.EndTime.Unix(),
			},
		}); err != nil {
			return err
		}

		created = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("social challenge created",
		"challenge_id", created.ID,
		"creator", created.Creator,
		"participants", len(created.Participants),
		"total_pool", created.TotalPool.String(),
	)
	return created, nil
}

// normalizeParticipants checks the participant list in order: count first,
// then emptiness and repeats after normalization.
func normalizeParticipants(raw []ir.Identity) ([]ir.Identity, error) {
	if len(raw) < MinParticipants {
		return nil, newError(ErrCodeTooFewParticipants, "Need at least %d participants", MinParticipants)
	}
	seen := make(map[ir.Identity]bool, len(raw))
	out := make([]ir.Identity, 0, len(raw))
	for i, r := range raw {
		p := ir.NormalizeIdentity(string(r))
		if p.IsZero() {
			return nil, newError(ErrCodeInvalidParticipants, "Participant %d is empty", i)
		}
		if seen[p] {
			return nil, newError(ErrCodeInvalidParticipants, "Participant %s listed twice", p)
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

