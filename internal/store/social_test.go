package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func TestSocial_SeparateIDSpace(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, tx.InsertChallenge(ctx, createTestChallenge(0, "0xa", "0.1", 1)))
		require.NoError(t, tx.InsertChallenge(ctx, createTestChallenge(1, "0xa", "0.1", 1)))

		id, err := tx.NextSocialID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), id)
		return nil
	})
}

func TestSocial_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	sc := createTestSocial(0, "0xc", "0.1", 2, "0xa", "0xb", "0xc")

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, tx.InsertSocial(ctx, sc))
		require.NoError(t, tx.AddSocialConfirmation(ctx, 0, "0xb", sc.StartDay, testStart))
		return nil
	})

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		got, err := tx.GetSocial(ctx, 0)
		require.NoError(t, err)

		assert.Equal(t, ir.Identity("0xc"), got.Creator)
		assert.Equal(t, "0.1", got.DepositPerParticipant.String())
		assert.Equal(t, "0.3", got.TotalPool.String())
		assert.False(t, got.Settled)
		require.Len(t, got.Participants, 3)
		assert.Equal(t, ir.Identity("0xa"), got.Participants[0].Identity)
		assert.Equal(t, 0, got.Participants[0].DaysCompleted)
		assert.Equal(t, []ir.DayIndex{sc.StartDay}, got.Participants[1].ConfirmedDays)
		assert.Equal(t, 1, got.Participants[1].DaysCompleted)
		assert.Equal(t, ir.StatusActive, got.Participants[2].Outcome)
		return nil
	})
}

func TestSocial_DuplicateParticipantRejected(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sc := createTestSocial(0, "0xa", "0.1", 1, "0xa", "0xa")

	err := s.WithTx(ctx, func(tx *Tx) error {
		return tx.InsertSocial(ctx, sc)
	})
	assert.Error(t, err)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		_, err := tx.GetSocial(ctx, 0)
		assert.ErrorIs(t, err, ErrNotFound, "failed insert must leave nothing behind")
		return nil
	})
}

func TestSocialConfirmation_RequiresParticipant(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sc := createTestSocial(0, "0xa", "0.1", 1, "0xa", "0xb")

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.InsertSocial(ctx, sc)
	})

	err := s.WithTx(ctx, func(tx *Tx) error {
		return tx.AddSocialConfirmation(ctx, 0, "0xz", sc.StartDay, testStart)
	})
	assert.Error(t, err)
}

func TestSettleSocial_OnlyOnce(t *testing.T) {
	s := createTestStore(t)
	sc := createTestSocial(0, "0xa", "0.1", 1, "0xa", "0xb")

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, tx.InsertSocial(ctx, sc))
		outcomes := map[ir.Identity]ir.Status{"0xa": ir.StatusCompleted, "0xb": ir.StatusFailed}
		require.NoError(t, tx.SettleSocial(ctx, 0, outcomes, sc.EndTime))
		assert.ErrorIs(t, tx.SettleSocial(ctx, 0, outcomes, sc.EndTime), ErrNotFound)

		got, err := tx.GetSocial(ctx, 0)
		require.NoError(t, err)
		assert.True(t, got.Settled)
		require.NotNil(t, got.SettledAt)
		assert.Equal(t, ir.StatusCompleted, got.Participant("0xa").Outcome)
		assert.Equal(t, ir.StatusFailed, got.Participant("0xb").Outcome)
		return nil
	})
}

func TestListSocialByParticipant(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, tx.InsertSocial(ctx, createTestSocial(0, "0xa", "0.1", 1, "0xa", "0xb")))
		require.NoError(t, tx.InsertSocial(ctx, createTestSocial(1, "0xc", "0.1", 1, "0xc", "0xd")))
		require.NoError(t, tx.InsertSocial(ctx, createTestSocial(2, "0xb", "0.1", 1, "0xb", "0xc")))

		list, err := tx.ListSocialByParticipant(ctx, "0xb")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, int64(0), list[0].ID)
		assert.Equal(t, int64(2), list[1].ID)
		return nil
	})
}
