package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stakewake/internal/ir"
)

// ErrDuplicateTransfer is returned when a settlement leg was already journaled.
var ErrDuplicateTransfer = errors.New("transfer already recorded")

// RecordTransfer journals one settlement leg under its deterministic ref.
// Uses ON CONFLICT(ref) DO NOTHING and reports a replay as
// ErrDuplicateTransfer, so a leg can never be paid out twice.
func (t *Tx) RecordTransfer(ctx context.Context, ref string, tr ir.Transfer) error {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO transfers (ref, receipt_id, kind, mode, challenge_id, party, amount, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO NOTHING
	`,
		ref,
		tr.ReceiptID,
		string(tr.Kind),
		string(tr.Mode),
		tr.ChallengeID,
		string(tr.Party),
		tr.Amount.String(),
		unixSeconds(tr.At),
	)
	if err != nil {
		return fmt.Errorf("record transfer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record transfer: rows affected: %w", err)
	}
	if n == 0 {
		return ErrDuplicateTransfer
	}
	return nil
}

// Transfers returns every journaled transfer in recording order.
func (t *Tx) Transfers(ctx context.Context) ([]ir.Transfer, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT receipt_id, kind, mode, challenge_id, party, amount, at
		FROM transfers
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()
	return scanTransfers(rows)
}

// TransfersFor returns the transfers of one challenge in recording order.
func (t *Tx) TransfersFor(ctx context.Context, mode ir.Mode, id int64) ([]ir.Transfer, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT receipt_id, kind, mode, challenge_id, party, amount, at
		FROM transfers
		WHERE mode = ? AND challenge_id = ?
		ORDER BY rowid ASC
	`, string(mode), id)
	if err != nil {
		return nil, fmt.Errorf("query challenge transfers: %w", err)
	}
	defer rows.Close()
	return scanTransfers(rows)
}

func scanTransfers(rows *sql.Rows) ([]ir.Transfer, error) {
	transfers := []ir.Transfer{}
	for rows.Next() {
		var (
			tr     ir.Transfer
			kind   string
			mode   string
			party  string
			amount string
			at     int64
		)
		if err := rows.Scan(&tr.ReceiptID, &kind, &mode, &tr.ChallengeID, &party, &amount, &at); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		value, err := ir.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", tr.ReceiptID, err)
		}
		tr.Kind = ir.TransferKind(kind)
		tr.Mode = ir.Mode(mode)
		tr.Party = ir.Identity(party)
		tr.Amount = value
		tr.At = fromUnix(at)
		transfers = append(transfers, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}
