package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/stakewake/internal/ir"
)

// NextChallengeID returns the id the next personal challenge will receive.
// Ids are sequential from 0 and never reused.
func (t *Tx) NextChallengeID(ctx context.Context) (int64, error) {
	var next int64
	err := t.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id) + 1, 0) FROM challenges`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next challenge id: %w", err)
	}
	return next, nil
}

// InsertChallenge writes a new challenge record. The id must be unused.
func (t *Tx) InsertChallenge(ctx context.Context, c *ir.Challenge) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO challenges
		(id, owner, deposit, wake_up_time, duration_days, start_time, end_time, start_day, status, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		string(c.Owner),
		c.Deposit.String(),
		c.WakeUpTime,
		c.DurationDays,
		unixSeconds(c.StartTime),
		unixSeconds(c.EndTime),
		int64(c.StartDay),
		string(c.Status),
		toNullUnix(c.FinalizedAt),
	)
	if err != nil {
		return fmt.Errorf("insert challenge %d: %w", c.ID, err)
	}
	return nil
}

// GetChallenge loads a challenge with its confirmed days in insertion order.
// Returns ErrNotFound if no challenge has the id.
func (t *Tx) GetChallenge(ctx context.Context, id int64) (*ir.Challenge, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT id, owner, deposit, wake_up_time, duration_days, start_time, end_time, start_day, status, finalized_at
		FROM challenges
		WHERE id = ?
	`, id)

	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge %d: %w", id, err)
	}

	days, err := t.confirmedDays(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ConfirmedDays = days
	c.DaysCompleted = len(days)
	return c, nil
}

// ListChallengesByOwner returns the owner's challenges ordered by id.
// Returns an empty slice (not nil) if the owner has none.
func (t *Tx) ListChallengesByOwner(ctx context.Context, owner ir.Identity) ([]ir.Challenge, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT id FROM challenges WHERE owner = ? ORDER BY id ASC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan challenge id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate challenges: %w", err)
	}
	// Close before issuing follow-up queries on the single connection.
	rows.Close()

	out := make([]ir.Challenge, 0, len(ids))
	for _, id := range ids {
		c, err := t.GetChallenge(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// AddConfirmation records day as confirmed for a personal challenge.
// A day can be recorded at most once per challenge.
func (t *Tx) AddConfirmation(ctx context.Context, id int64, day ir.DayIndex, at time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO confirmations (challenge_id, day, confirmed_at)
		VALUES (?, ?, ?)
	`, id, int64(day), unixSeconds(at))
	if err != nil {
		return fmt.Errorf("add confirmation %d/%d: %w", id, day, err)
	}
	return nil
}

// SetChallengeStatus moves an active challenge to a terminal status.
// Returns ErrNotFound if the challenge is missing or no longer active, so a
// status can never be overwritten.
func (t *Tx) SetChallengeStatus(ctx context.Context, id int64, status ir.Status, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE challenges SET status = ?, finalized_at = ?
		WHERE id = ? AND status = ?
	`, string(status), unixSeconds(at), id, string(ir.StatusActive))
	if err != nil {
		return fmt.Errorf("set challenge status %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set challenge status %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *Tx) confirmedDays(ctx context.Context, id int64) ([]ir.DayIndex, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT day FROM confirmations
		WHERE challenge_id = ?
		ORDER BY rowid ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query confirmations: %w", err)
	}
	defer rows.Close()
	return scanDays(rows)
}

func scanDays(rows *sql.Rows) ([]ir.DayIndex, error) {
	days := []ir.DayIndex{}
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, ir.DayIndex(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return days, nil
}

func scanChallenge(row *sql.Row) (*ir.Challenge, error) {
	var (
		c           ir.Challenge
		owner       string
		deposit     string
		startTime   int64
		endTime     int64
		startDay    int64
		status      string
		finalizedAt sql.NullInt64
	)
	err := row.Scan(&c.ID, &owner, &deposit, &c.WakeUpTime, &c.DurationDays,
		&startTime, &endTime, &startDay, &status, &finalizedAt)
	if err != nil {
		return nil, err
	}

	amount, err := ir.ParseAmount(deposit)
	if err != nil {
		return nil, fmt.Errorf("challenge %d: %w", c.ID, err)
	}

	c.Owner = ir.Identity(owner)
	c.Deposit = amount
	c.StartTime = fromUnix(startTime)
	c.EndTime = fromUnix(endTime)
	c.StartDay = ir.DayIndex(startDay)
	c.Status = ir.Status(status)
	c.FinalizedAt = fromNullUnix(finalizedAt)
	return &c, nil
}
