package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/stakewake/internal/ir"
)

// NextSocialID returns the id the next social challenge will receive.
// Social challenges have their own id space, also starting at 0.
func (t *Tx) NextSocialID(ctx context.Context) (int64, error) {
	var next int64
	err := t.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id) + 1, 0) FROM social_challenges`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next social id: %w", err)
	}
	return next, nil
}

// InsertSocial writes a social challenge and its participant slots.
func (t *Tx) InsertSocial(ctx context.Context, s *ir.SocialChallenge) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO social_challenges
		(id, creator, deposit_per_participant, total_pool, wake_up_time, duration_days,
		 start_time, end_time, start_day, settled, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID,
		string(s.Creator),
		s.DepositPerParticipant.String(),
		s.TotalPool.String(),
		s.WakeUpTime,
		s.DurationDays,
		unixSeconds(s.StartTime),
		unixSeconds(s.EndTime),
		int64(s.StartDay),
		s.Settled,
		toNullUnix(s.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("insert social challenge %d: %w", s.ID, err)
	}

	for slot, p := range s.Participants {
		_, err := t.q.ExecContext(ctx, `
			INSERT INTO social_participants (challenge_id, slot, identity, outcome)
			VALUES (?, ?, ?, ?)
		`, s.ID, slot, string(p.Identity), string(p.Outcome))
		if err != nil {
			return fmt.Errorf("insert participant %s: %w", p.Identity, err)
		}
	}
	return nil
}

// GetSocial loads a social challenge with every participant slot in creation
// order. Returns ErrNotFound if no social challenge has the id.
func (t *Tx) GetSocial(ctx context.Context, id int64) (*ir.SocialChallenge, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT id, creator, deposit_per_participant, total_pool, wake_up_time, duration_days,
		       start_time, end_time, start_day, settled, settled_at
		FROM social_challenges
		WHERE id = ?
	`, id)

	s, err := scanSocial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get social challenge %d: %w", id, err)
	}

	participants, err := t.participants(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range participants {
		days, err := t.socialDays(ctx, id, participants[i].Identity)
		if err != nil {
			return nil, err
		}
		participants[i].ConfirmedDays = days
		participants[i].DaysCompleted = len(days)
	}
	s.Participants = participants
	return s, nil
}

// ListSocialByParticipant returns every social challenge the identity takes
// part in, ordered by id.
func (t *Tx) ListSocialByParticipant(ctx context.Context, identity ir.Identity) ([]ir.SocialChallenge, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT challenge_id FROM social_participants
		WHERE identity = ?
		ORDER BY challenge_id ASC
	`, string(identity))
	if err != nil {
		return nil, fmt.Errorf("list social challenges: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan social id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate social challenges: %w", err)
	}
	rows.Close()

	out := make([]ir.SocialChallenge, 0, len(ids))
	for _, id := range ids {
		s, err := t.GetSocial(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// AddSocialConfirmation records day as confirmed for one participant slot.
func (t *Tx) AddSocialConfirmation(ctx context.Context, id int64, participant ir.Identity, day ir.DayIndex, at time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO social_confirmations (challenge_id, identity, day, confirmed_at)
		VALUES (?, ?, ?, ?)
	`, id, string(participant), int64(day), unixSeconds(at))
	if err != nil {
		return fmt.Errorf("add social confirmation %d/%s/%d: %w", id, participant, day, err)
	}
	return nil
}

// SettleSocial stores every participant outcome and seals the challenge.
// Returns ErrNotFound if the challenge is missing or already settled.
func (t *Tx) SettleSocial(ctx context.Context, id int64, outcomes map[ir.Identity]ir.Status, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE social_challenges SET settled = 1, settled_at = ?
		WHERE id = ? AND settled = 0
	`, unixSeconds(at), id)
	if err != nil {
		return fmt.Errorf("settle social challenge %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle social challenge %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	for identity, outcome := range outcomes {
		_, err := t.q.ExecContext(ctx, `
			UPDATE social_participants SET outcome = ?
			WHERE challenge_id = ? AND identity = ?
		`, string(outcome), id, string(identity))
		if err != nil {
			return fmt.Errorf("set outcome %s: %w", identity, err)
		}
	}
	return nil
}

func (t *Tx) participants(ctx context.Context, id int64) ([]ir.Participant, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT identity, outcome FROM social_participants
		WHERE challenge_id = ?
		ORDER BY slot ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	participants := []ir.Participant{}
	for rows.Next() {
		var identity, outcome string
		if err := rows.Scan(&identity, &outcome); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, ir.Participant{
			Identity: ir.Identity(identity),
			Outcome:  ir.Status(outcome),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

func (t *Tx) socialDays(ctx context.Context, id int64, participant ir.Identity) ([]ir.DayIndex, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT day FROM social_confirmations
		WHERE challenge_id = ? AND identity = ?
		ORDER BY rowid ASC
	`, id, string(participant))
	if err != nil {
		return nil, fmt.Errorf("query social confirmations: %w", err)
	}
	defer rows.Close()
	return scanDays(rows)
}

func scanSocial(row *sql.Row) (*ir.SocialChallenge, error) {
	var (
		s         ir.SocialChallenge
		creator   string
		deposit   string
		pool      string
		startTime int64
		endTime   int64
		startDay  int64
		settledAt sql.NullInt64
	)
	err := row.Scan(&s.ID, &creator, &deposit, &pool, &s.WakeUpTime, &s.DurationDays,
		&startTime, &endTime, &startDay, &s.Settled, &settledAt)
	if err != nil {
		return nil, err
	}

	perParticipant, err := ir.ParseAmount(deposit)
	if err != nil {
		return nil, fmt.Errorf("social challenge %d: %w", s.ID, err)
	}
	total, err := ir.ParseAmount(pool)
	if err != nil {
		return nil, fmt.Errorf("social challenge %d: %w", s.ID, err)
	}

	s.Creator = ir.Identity(creator)
	s.DepositPerParticipant = perParticipant
	s.TotalPool = total
	s.StartTime = fromUnix(startTime)
	s.EndTime = fromUnix(endTime)
	s.StartDay = ir.DayIndex(startDay)
	s.SettledAt = fromNullUnix(settledAt)
	return &s, nil
}
