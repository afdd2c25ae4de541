package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/store"
)

// Stats summarizes one identity's personal challenges.
type Stats struct {
	Identity            ir.Identity     `json:"identity"`
	TotalChallenges     int             `json:"total_challenges"`
	ActiveChallenges    int             `json:"active_challenges"`
	CompletedChallenges int             `json:"completed_challenges"`
	FailedChallenges    int             `json:"failed_challenges"`
	TotalWakeUps        int             `json:"total_wake_ups"`
	TotalDeposited      decimal.Decimal `json:"total_deposited"`
	// SuccessRate is completed/total as a percentage with two decimals.
	SuccessRate string `json:"success_rate"`
}

// Get returns a personal challenge.
func (e *Engine) Get(ctx context.Context, id int64) (*ir.Challenge, error) {
	var c *ir.Challenge
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		c, err = tx.GetChallenge(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("challenge", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetSocial returns a social challenge.
func (e *Engine) GetSocial(ctx context.Context, id int64) (*ir.SocialChallenge, error) {
	var s *ir.SocialChallenge
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		s, err = tx.GetSocial(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("social challenge", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Profile returns the ledger entry for identity. Unknown identities get an
// all-zero entry.
func (e *Engine) Profile(ctx context.Context, identity ir.Identity) (ir.LedgerEntry, error) {
	id := ir.NormalizeIdentity(string(identity))
	var entry ir.LedgerEntry
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		entry, err = tx.GetLedger(ctx, id)
		return err
	})
	return entry, err
}

// ListByOwner returns identity's personal challenges in id order.
func (e *Engine) ListByOwner(ctx context.Context, owner ir.Identity) ([]ir.Challenge, error) {
	id := ir.NormalizeIdentity(string(owner))
	var out []ir.Challenge
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.ListChallengesByOwner(ctx, id)
		return err
	})
	return out, err
}

// ListSocial returns the social challenges identity participates in.
func (e *Engine) ListSocial(ctx context.Context, participant ir.Identity) ([]ir.SocialChallenge, error) {
	id := ir.NormalizeIdentity(string(participant))
	var out []ir.SocialChallenge
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.ListSocialByParticipant(ctx, id)
		return err
	})
	return out, err
}

// Stats summarizes identity's personal challenges.
func (e *Engine) Stats(ctx context.Context, identity ir.Identity) (Stats, error) {
	list, err := e.ListByOwner(ctx, identity)
	if err != nil {
		return Stats{}, err
	}
	return summarize(ir.NormalizeIdentity(string(identity)), list), nil
}

func summarize(id ir.Identity, list []ir.Challenge) Stats {
	st := Stats{Identity: id, TotalChallenges: len(list), TotalDeposited: decimal.Zero}
	for _, c := range list {
		switch c.Status {
		case ir.StatusActive:
			st.ActiveChallenges++
		case ir.StatusCompleted:
			st.CompletedChallenges++
		case ir.StatusFailed:
			st.FailedChallenges++
		}
		st.TotalWakeUps += c.DaysCompleted
		st.TotalDeposited = st.TotalDeposited.Add(c.Deposit)
	}
	rate := decimal.Zero
	if st.TotalChallenges > 0 {
		rate = decimal.NewFromInt(int64(st.CompletedChallenges * 100)).
			Div(decimal.NewFromInt(int64(st.TotalChallenges)))
	}
	st.SuccessRate = rate.StringFixed(2)
	return st
}

// Events returns up to limit log entries with seq > afterSeq. A limit of
// zero or less returns everything.
func (e *Engine) Events(ctx context.Context, afterSeq int64, limit int) ([]ir.Event, error) {
	var out []ir.Event
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Events(ctx, afterSeq, limit)
		return err
	})
	return out, err
}

// ChallengeEvents returns the log entries of one challenge.
func (e *Engine) ChallengeEvents(ctx context.Context, mode ir.Mode, id int64) ([]ir.Event, error) {
	var out []ir.Event
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.EventsForChallenge(ctx, mode, id)
		return err
	})
	return out, err
}

// Transfers returns the settlement journal in record order.
func (e *Engine) Transfers(ctx context.Context) ([]ir.Transfer, error) {
	var out []ir.Transfer
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Transfers(ctx)
		return err
	})
	return out, err
}

// Audit recomputes the ledger from challenges and the transfer journal and
// reports any disagreement with the stored ledger or the event log.
func (e *Engine) Audit(ctx context.Context) (store.AuditReport, error) {
	var report store.AuditReport
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		report, err = tx.Reconcile(ctx)
		return err
	})
	return report, err
}
