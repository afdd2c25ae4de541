package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stakewake/internal/ir"
)

// GetLedger returns the ledger entry for identity. An identity that never
// deposited gets an all-zero entry rather than ErrNotFound.
func (t *Tx) GetLedger(ctx context.Context, identity ir.Identity) (ir.LedgerEntry, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT identity, total_deposited, total_returned, total_burned, successful_challenges, failed_challenges
		FROM ledger
		WHERE identity = ?
	`, string(identity))

	entry, err := scanLedger(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NewLedgerEntry(identity), nil
	}
	if err != nil {
		return ir.LedgerEntry{}, fmt.Errorf("get ledger %s: %w", identity, err)
	}
	return entry, nil
}

// ApplyLedger adds delta to the identity's entry and returns the new totals.
// Counters only ever grow; a delta with negative parts is rejected.
func (t *Tx) ApplyLedger(ctx context.Context, identity ir.Identity, delta ir.LedgerDelta) (ir.LedgerEntry, error) {
	if delta.Deposited.IsNegative() || delta.Returned.IsNegative() || delta.Burned.IsNegative() ||
		delta.Successful < 0 || delta.Failed < 0 {
		return ir.LedgerEntry{}, fmt.Errorf("apply ledger %s: negative delta", identity)
	}

	entry, err := t.GetLedger(ctx, identity)
	if err != nil {
		return ir.LedgerEntry{}, err
	}
	entry.Apply(delta)

	_, err = t.q.ExecContext(ctx, `
		INSERT INTO ledger
		(identity, total_deposited, total_returned, total_burned, successful_challenges, failed_challenges)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			total_deposited = excluded.total_deposited,
			total_returned = excluded.total_returned,
			total_burned = excluded.total_burned,
			successful_challenges = excluded.successful_challenges,
			failed_challenges = excluded.failed_challenges
	`,
		string(entry.Identity),
		entry.TotalDeposited.String(),
		entry.TotalReturned.String(),
		entry.TotalBurned.String(),
		entry.SuccessfulChallenges,
		entry.FailedChallenges,
	)
	if err != nil {
		return ir.LedgerEntry{}, fmt.Errorf("apply ledger %s: %w", identity, err)
	}
	return entry, nil
}

// ListLedger returns every stored ledger entry ordered by identity.
func (t *Tx) ListLedger(ctx context.Context) ([]ir.LedgerEntry, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT identity, total_deposited, total_returned, total_burned, successful_challenges, failed_challenges
		FROM ledger
		ORDER BY identity COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	entries := []ir.LedgerEntry{}
	for rows.Next() {
		entry, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLedger(row scanner) (ir.LedgerEntry, error) {
	var identity, deposited, returned, burned string
	var entry ir.LedgerEntry
	if err := row.Scan(&identity, &deposited, &returned, &burned,
		&entry.SuccessfulChallenges, &entry.FailedChallenges); err != nil {
		return ir.LedgerEntry{}, err
	}

	var err error
	entry.Identity = ir.Identity(identity)
	if entry.TotalDeposited, err = ir.ParseAmount(deposited); err != nil {
		return ir.LedgerEntry{}, err
	}
	if entry.TotalReturned, err = ir.ParseAmount(returned); err != nil {
		return ir.LedgerEntry{}, err
	}
	if entry.TotalBurned, err = ir.ParseAmount(burned); err != nil {
		return ir.LedgerEntry{}, err
	}
	return entry, nil
}
