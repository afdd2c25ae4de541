package engine

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/oracle"
	"github.com/roach88/stakewake/internal/store"
)

// ConfirmWakeUp records that the owner woke up today.
//
// Checks run in order: NotFound, Unauthorized (not the owner), NotActive
// (settled or outside the challenge window), DuplicateConfirmation, and
// MissedDeadline when deadline enforcement is on.
func (e *Engine) ConfirmWakeUp(ctx context.Context, id int64, caller ir.Identity) (*ir.Challenge, error) {
	var confirmed *ir.Challenge
	var today ir.DayIndex
	err := e.run(ctx, "confirm", func(ctx context.Context, o *op) error {
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

		today = e.calendar.DayOf(o.now)
		if !c.InWindow(today) {
			return newError(ErrCodeNotActive, "Challenge window has closed")
		}
		if c.HasConfirmed(today) {
			return newError(ErrCodeDuplicateConfirmation, "Already confirmed for today")
		}
		if err := e.checkDeadline(today, c.WakeUpTime, o.now); err != nil {
			return err
		}

		if err := o.tx.AddConfirmation(ctx, id, today, o.now); err != nil {
			return err
		}
		c.ConfirmedDays = append(c.ConfirmedDays, today)
		c.DaysCompleted = len(c.ConfirmedDays)

		if err := o.emit(ctx, ir.Event{
			Kind:        ir.EventWakeUpConfirmed,
			Mode:        ir.ModePersonal,
			ChallengeID: id,
			Actor:       who,
			Data:        dayData(today, c.DaysCompleted),
		}); err != nil {
			return err
		}

		confirmed = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("wake-up confirmed",
		"challenge_id", id,
		"caller", confirmed.Owner,
		"day", today,
		"days_completed", confirmed.DaysCompleted,
	)
	return confirmed, nil
}

// ConfirmSocialWakeUp records today's wake-up for one participant of a
// social challenge. The caller must pass the oracle gate.
//
// Checks run in order: NotFound, Unauthorized (gate), NotActive (settled),
// NotParticipant, NotActive (outside the window), DuplicateConfirmation,
// and MissedDeadline when deadline enforcement is on.
func (e *Engine) ConfirmSocialWakeUp(ctx context.Context, id int64, caller, participant ir.Identity) (*ir.SocialChallenge, error) {
	var confirmed *ir.SocialChallenge
	var today ir.DayIndex
	member := ir.NormalizeIdentity(string(participant))
	err := e.run(ctx, "confirm_social", func(ctx context.Context, o *op) error {
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

		current, err := e.currentOracle(ctx, o.tx)
		if err != nil {
			return err
		}
		if err := e.gate.Authorize(ctx, oracle.Attestation{
			Caller:      who,
			Oracle:      current,
			ChallengeID: id,
			Participant: member,
		}); err != nil {
			return &Error{Code: ErrCodeUnauthorized, Message: "Only oracle can call", Err: err}
		}

		if s.Settled {
			return newError(ErrCodeNotActive, "Challenge already settled")
		}
		slot := s.Participant(member)
		if slot == nil {
			return newError(ErrCodeNotParticipant, "%s is not a participant", member)
		}

		today = e.calendar.DayOf(o.now)
		if !s.InWindow(today) {
			return newError(ErrCodeNotActive, "Challenge window has closed")
		}
		if slot.HasConfirmed(today) {
			return newError(ErrCodeDuplicateConfirmation, "Already confirmed for today")
		}
		if err := e.checkDeadline(today, s.WakeUpTime, o.now); err != nil {
			return err
		}

		if err := o.tx.AddSocialConfirmation(ctx, id, member, today, o.now); err != nil {
			return err
		}
		slot.ConfirmedDays = append(slot.ConfirmedDays, today)
		slot.DaysCompleted = len(slot.ConfirmedDays)

		data := dayData(today, slot.DaysCompleted)
		data["participant"] = string(member)
		if err := o.emit(ctx, ir.Event{
			Kind:        ir.EventSocialWakeUpConfirmed,
			Mode:        ir.ModeSocial,
			ChallengeID: id,
			Actor:       who,
			Data:        data,
		}); err != nil {
			return err
		}

		confirmed = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("social wake-up confirmed",
		"challenge_id", id,
		"participant", member,
		"day", today,
	)
	return confirmed, nil
}

// checkDeadline rejects an action taken after the day's wake-up time.
func (e *Engine) checkDeadline(day ir.DayIndex, wakeUpTime int64, now time.Time) error {
	if !e.enforceDeadline {
		return nil
	}
	if deadline := e.calendar.Deadline(day, wakeUpTime); now.After(deadline) {
		return newError(ErrCodeMissedDeadline, "Wake-up deadline %s has passed", deadline.Format("15:04"))
	}
	return nil
}

// dayData is the event payload shared by both confirmation kinds.
func dayData(day ir.DayIndex, completed int) map[string]any {
	return map[string]any{
		"day":            day,
		"days_completed": int64(completed),
	}
}
