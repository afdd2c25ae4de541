package store

import (
	"context"
	"database/sql"
	"time"
)

// querier is the subset of *sql.DB and *sql.Tx used by Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx exposes every store operation against one open transaction.
// Obtain one through Store.WithTx or Store.View.
type Tx struct {
	q querier
}

func unixSeconds(t time.Time) int64 {
	return t.Unix()
}

func fromUnix(secs int64) time.Time {
	return time.Unix(secs, 0).UTC()
}

func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnix(v.Int64)
	return &t
}

func toNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
