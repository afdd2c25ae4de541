package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func TestGetLedger_ZeroForUnknownIdentity(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		entry, err := tx.GetLedger(ctx, "0xnobody")
		require.NoError(t, err)
		assert.True(t, ir.NewLedgerEntry("0xnobody").Equal(entry))
		return nil
	})
}

func TestApplyLedger_Accumulates(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		_, err := tx.ApplyLedger(ctx, "0xa", ir.LedgerDelta{Deposited: ir.MustAmount("0.1")})
		require.NoError(t, err)
		_, err = tx.ApplyLedger(ctx, "0xa", ir.LedgerDelta{Returned: ir.MustAmount("0.1"), Successful: 1})
		require.NoError(t, err)
		_, err = tx.ApplyLedger(ctx, "0xa", ir.LedgerDelta{Deposited: ir.MustAmount("0.25")})
		require.NoError(t, err)
		_, err = tx.ApplyLedger(ctx, "0xa", ir.LedgerDelta{Burned: ir.MustAmount("0.25"), Failed: 1})
		require.NoError(t, err)
		return nil
	})

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		entry, err := tx.GetLedger(ctx, "0xa")
		require.NoError(t, err)
		assert.Equal(t, "0.35", entry.TotalDeposited.String())
		assert.Equal(t, "0.1", entry.TotalReturned.String())
		assert.Equal(t, "0.25", entry.TotalBurned.String())
		assert.Equal(t, int64(1), entry.SuccessfulChallenges)
		assert.Equal(t, int64(1), entry.FailedChallenges)
		return nil
	})
}

func TestApplyLedger_RejectsNegativeDelta(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		_, err := tx.ApplyLedger(ctx, "0xa", ir.LedgerDelta{Burned: ir.MustAmount("-0.1")})
		assert.Error(t, err)
		_, err = tx.ApplyLedger(ctx, "0xa", ir.LedgerDelta{Failed: -1})
		assert.Error(t, err)
		return nil
	})
}

func TestListLedger_SortedByIdentity(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		for _, id := range []ir.Identity{"0xc", "0xa", "0xb"} {
			_, err := tx.ApplyLedger(ctx, id, ir.LedgerDelta{Deposited: ir.MustAmount("1")})
			require.NoError(t, err)
		}
		entries, err := tx.ListLedger(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, ir.Identity("0xa"), entries[0].Identity)
		assert.Equal(t, ir.Identity("0xc"), entries[2].Identity)
		return nil
	})
}

func TestSettings_PutAndReplace(t *testing.T) {
	s := createTestStore(t)

	mustTx(t, s, func(ctx context.Context, tx *Tx) error {
		_, ok, err := tx.Setting(ctx, SettingOracle)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, tx.PutSetting(ctx, SettingOracle, "0xold"))
		require.NoError(t, tx.PutSetting(ctx, SettingOracle, "0xnew"))

		v, ok, err := tx.Setting(ctx, SettingOracle)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0xnew", v)
		return nil
	})
}
