package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
)

// LedgerDrift describes a ledger entry whose stored totals disagree with the
// totals recomputed from challenges and the transfer journal.
type LedgerDrift struct {
	Identity ir.Identity    `json:"identity"`
	Stored   ir.LedgerEntry `json:"stored"`
	Expected ir.LedgerEntry `json:"expected"`
}

// AuditReport is the result of Reconcile.
type AuditReport struct {
	Challenges       int           `json:"challenges"`
	SocialChallenges int           `json:"social_challenges"`
	Transfers        int           `json:"transfers"`
	Events           int           `json:"events"`
	LedgerDrift      []LedgerDrift `json:"ledger_drift"`
	Problems         []string      `json:"problems"`
}

// Clean reports whether the audit found nothing to flag.
func (r AuditReport) Clean() bool {
	return len(r.LedgerDrift) == 0 && len(r.Problems) == 0
}

// Reconcile recomputes every ledger entry from first principles and checks
// the settlement journal and event log for consistency:
//
//   - deposited = personal deposits + social shares of the identity
//   - returned / burned = sum of journaled RETURN / BURN legs for the identity
//   - successful / failed = terminal outcomes of the identity's challenges
//   - every settled challenge or participant has exactly one matching leg
//   - event seqs are contiguous from 1 and every event ID matches its content
//
// Reconcile never writes; run it inside Store.View.
func (t *Tx) Reconcile(ctx context.Context) (AuditReport, error) {
	report := AuditReport{LedgerDrift: []LedgerDrift{}, Problems: []string{}}
	expected := map[ir.Identity]*ir.LedgerEntry{}
	entry := func(id ir.Identity) *ir.LedgerEntry {
		e, ok := expected[id]
		if !ok {
			fresh := ir.NewLedgerEntry(id)
			e = &fresh
			expected[id] = e
		}
		return e
	}

	transfers, err := t.Transfers(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	report.Transfers = len(transfers)
	legs := map[legKey][]ir.Transfer{}
	for _, tr := range transfers {
		switch tr.Kind {
		case ir.TransferReturn:
			entry(tr.Party).Apply(ir.LedgerDelta{Returned: tr.Amount})
		case ir.TransferBurn:
			entry(tr.Party).Apply(ir.LedgerDelta{Burned: tr.Amount})
		}
		k := legKey{mode: tr.Mode, id: tr.ChallengeID, party: tr.Party}
		legs[k] = append(legs[k], tr)
	}

	challengeIDs, err := t.ids(ctx, `SELECT id FROM challenges ORDER BY id ASC`)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	report.Challenges = len(challengeIDs)
	for _, id := range challengeIDs {
		c, err := t.GetChallenge(ctx, id)
		if err != nil {
			return report, fmt.Errorf("reconcile: %w", err)
		}
		e := entry(c.Owner)
		e.Apply(ir.LedgerDelta{Deposited: c.Deposit})
		e.Apply(outcomeDelta(c.Status))
		report.Problems = append(report.Problems,
			checkLegs(legs[legKey{mode: ir.ModePersonal, id: c.ID, party: c.Owner}],
				fmt.Sprintf("challenge %d", c.ID), c.Status, c.Deposit)...)
		if c.DaysCompleted > c.DurationDays {
			report.Problems = append(report.Problems,
				fmt.Sprintf("challenge %d: %d confirmations exceed %d days", c.ID, c.DaysCompleted, c.DurationDays))
		}
	}

	socialIDs, err := t.ids(ctx, `SELECT id FROM social_challenges ORDER BY id ASC`)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	report.SocialChallenges = len(socialIDs)
	for _, id := range socialIDs {
		s, err := t.GetSocial(ctx, id)
		if err != nil {
			return report, fmt.Errorf("reconcile: %w", err)
		}
		for _, p := range s.Participants {
			e := entry(p.Identity)
			e.Apply(ir.LedgerDelta{Deposited: s.DepositPerParticipant})
			e.Apply(outcomeDelta(p.Outcome))
			report.Problems = append(report.Problems,
				checkLegs(legs[legKey{mode: ir.ModeSocial, id: s.ID, party: p.Identity}],
					fmt.Sprintf("social challenge %d participant %s", s.ID, p.Identity),
					p.Outcome, s.DepositPerParticipant)...)
		}
		if s.Settled != allTerminal(s.Participants) {
			report.Problems = append(report.Problems,
				fmt.Sprintf("social challenge %d: settled flag disagrees with participant outcomes", s.ID))
		}
	}

	stored, err := t.ListLedger(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	seen := map[ir.Identity]bool{}
	for _, s := range stored {
		seen[s.Identity] = true
		want := ir.NewLedgerEntry(s.Identity)
		if e, ok := expected[s.Identity]; ok {
			want = *e
		}
		if !want.Equal(s) {
			report.LedgerDrift = append(report.LedgerDrift, LedgerDrift{Identity: s.Identity, Stored: s, Expected: want})
		}
	}
	missing := make([]ir.Identity, 0)
	for id := range expected {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	for _, id := range missing {
		report.LedgerDrift = append(report.LedgerDrift, LedgerDrift{
			Identity: id,
			Stored:   ir.NewLedgerEntry(id),
			Expected: *expected[id],
		})
	}

	events, err := t.Events(ctx, 0, 0)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	report.Events = len(events)
	for i, e := range events {
		if e.Seq != int64(i+1) {
			report.Problems = append(report.Problems, fmt.Sprintf("event log: seq %d at position %d", e.Seq, i+1))
		}
		id, err := ir.EventID(e)
		if err != nil || id != e.ID {
			report.Problems = append(report.Problems, fmt.Sprintf("event %d: content does not match id", e.Seq))
		}
	}

	return report, nil
}

type legKey struct {
	mode  ir.Mode
	id    int64
	party ir.Identity
}

func outcomeDelta(s ir.Status) ir.LedgerDelta {
	switch s {
	case ir.StatusCompleted:
		return ir.LedgerDelta{Successful: 1}
	case ir.StatusFailed:
		return ir.LedgerDelta{Failed: 1}
	default:
		return ir.LedgerDelta{}
	}
}

func checkLegs(legs []ir.Transfer, what string, status ir.Status, amount decimal.Decimal) []string {
	want := map[ir.Status]ir.TransferKind{
		ir.StatusCompleted: ir.TransferReturn,
		ir.StatusFailed:    ir.TransferBurn,
	}
	kind, terminal := want[status]
	switch {
	case !terminal && len(legs) > 0:
		return []string{fmt.Sprintf("%s: transfer recorded while still active", what)}
	case !terminal:
		return nil
	case len(legs) != 1:
		return []string{fmt.Sprintf("%s: %d transfers recorded, want 1", what, len(legs))}
	case legs[0].Kind != kind:
		return []string{fmt.Sprintf("%s: %s recorded for %s outcome", what, legs[0].Kind, status)}
	case !legs[0].Amount.Equal(amount):
		return []string{fmt.Sprintf("%s: transfer amount %s, want %s", what, legs[0].Amount, amount)}
	}
	return nil
}

func allTerminal(ps []ir.Participant) bool {
	for _, p := range ps {
		if !p.Outcome.IsTerminal() {
			return false
		}
	}
	return len(ps) > 0
}

func (t *Tx) ids(ctx context.Context, query string) ([]int64, error) {
	rows, err := t.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
