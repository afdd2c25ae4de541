package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/stakewake/internal/ir"
)

// AppendEvent assigns the next sequence number and the content-addressed ID
// to e and appends it to the log. Because the sequence is read and written in
// the caller's transaction, log order equals commit order and a rolled-back
// operation leaves no gap.
func (t *Tx) AppendEvent(ctx context.Context, e ir.Event) (ir.Event, error) {
	var seq int64
	if err := t.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM events`).Scan(&seq); err != nil {
		return ir.Event{}, fmt.Errorf("append event: next seq: %w", err)
	}
	e.Seq = seq
	e.At = e.At.UTC()

	id, err := ir.EventID(e)
	if err != nil {
		return ir.Event{}, fmt.Errorf("append event: %w", err)
	}
	e.ID = id

	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	dataJSON, err := ir.MarshalCanonical(data)
	if err != nil {
		return ir.Event{}, fmt.Errorf("append event: marshal data: %w", err)
	}

	_, err = t.q.ExecContext(ctx, `
		INSERT INTO events (seq, id, kind, mode, challenge_id, actor, at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Seq,
		e.ID,
		string(e.Kind),
		string(e.Mode),
		e.ChallengeID,
		string(e.Actor),
		unixSeconds(e.At),
		string(dataJSON),
	)
	if err != nil {
		return ir.Event{}, fmt.Errorf("append event: %w", err)
	}
	return e, nil
}

// Events returns up to limit events with seq > afterSeq in log order.
// A limit of 0 or less returns every remaining event.
func (t *Tx) Events(ctx context.Context, afterSeq int64, limit int) ([]ir.Event, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := t.q.QueryContext(ctx, `
		SELECT seq, id, kind, mode, challenge_id, actor, at, data
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsForChallenge returns the events of one challenge in log order.
func (t *Tx) EventsForChallenge(ctx context.Context, mode ir.Mode, id int64) ([]ir.Event, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT seq, id, kind, mode, challenge_id, actor, at, data
		FROM events
		WHERE mode = ? AND challenge_id = ?
		ORDER BY seq ASC
	`, string(mode), id)
	if err != nil {
		return nil, fmt.Errorf("query challenge events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]ir.Event, error) {
	events := []ir.Event{}
	for rows.Next() {
		var (
			e        ir.Event
			kind     string
			mode     string
			actor    string
			at       int64
			dataJSON string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &kind, &mode, &e.ChallengeID, &actor, &at, &dataJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		data, err := unmarshalEventData(dataJSON)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.Seq, err)
		}
		e.Kind = ir.EventKind(kind)
		e.Mode = ir.Mode(mode)
		e.Actor = ir.Identity(actor)
		e.At = fromUnix(at)
		e.Data = data
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// unmarshalEventData decodes stored event data back into canonical-JSON
// friendly values. Numbers come back as int64 so EventID can be recomputed.
func unmarshalEventData(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	out, err := restoreIntegers(m)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func restoreIntegers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q in event data", val)
		}
		return n, nil
	case map[string]any:
		for k, elem := range val {
			restored, err := restoreIntegers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = restored
		}
		return val, nil
	case []any:
		for i, elem := range val {
			restored, err := restoreIntegers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = restored
		}
		return val, nil
	default:
		return v, nil
	}
}
