package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustTx runs fn in a committed transaction and fails the test on error.
func mustTx(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := s.WithTx(ctx, func(tx *Tx) error { return fn(ctx, tx) }); err != nil {
		t.Fatalf("WithTx() failed: %v", err)
	}
}

var testStart = time.Date(2026, 10, 15, 6, 30, 0, 0, time.UTC)

// createTestChallenge builds an active challenge with minimal required fields.
func createTestChallenge(id int64, owner string, deposit string, days int) *ir.Challenge {
	cal := ir.Calendar{}
	return &ir.Challenge{
		ID:            id,
		Owner:         ir.Identity(owner),
		Deposit:       ir.MustAmount(deposit),
		WakeUpTime:    25200,
		DurationDays:  days,
		StartTime:     testStart,
		EndTime:       testStart.Add(time.Duration(days) * 24 * time.Hour),
		StartDay:      cal.DayOf(testStart),
		ConfirmedDays: []ir.DayIndex{},
		Status:        ir.StatusActive,
	}
}

// createTestSocial builds an unsettled social challenge.
func createTestSocial(id int64, creator string, deposit string, days int, participants ...string) *ir.SocialChallenge {
	cal := ir.Calendar{}
	share := ir.MustAmount(deposit)
	s := &ir.SocialChallenge{
		ID:                    id,
		Creator:               ir.Identity(creator),
		DepositPerParticipant: share,
		TotalPool:             share.Mul(decimal.NewFromInt(int64(len(participants)))),
		WakeUpTime:            25200,
		DurationDays:          days,
		StartTime:             testStart,
		EndTime:               testStart.Add(time.Duration(days) * 24 * time.Hour),
		StartDay:              cal.DayOf(testStart),
	}
	for _, p := range participants {
		s.Participants = append(s.Participants, ir.Participant{
			Identity:      ir.Identity(p),
			ConfirmedDays: []ir.DayIndex{},
			Outcome:       ir.StatusActive,
		})
	}
	return s
}
