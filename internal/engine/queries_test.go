package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	won := env.create(t, "0xa", "0.1", 1)
	lost := env.create(t, "0xa", "0.2", 1)
	env.create(t, "0xa", "0.3", 5)
	env.create(t, "0xb", "9", 1)

	_, err := env.engine.ConfirmWakeUp(ctx, won.ID, "0xa")
	require.NoError(t, err)
	_, err = env.engine.ConfirmWakeUp(ctx, 2, "0xa")
	require.NoError(t, err)
	env.clock.Advance(day)
	_, err = env.engine.Finalize(ctx, won.ID, "0xa")
	require.NoError(t, err)
	_, err = env.engine.Finalize(ctx, lost.ID, "0xa")
	require.NoError(t, err)

	st, err := env.engine.Stats(ctx, "0xA")
	require.NoError(t, err)
	assert.Equal(t, ir.Identity("0xa"), st.Identity)
	assert.Equal(t, 3, st.TotalChallenges)
	assert.Equal(t, 1, st.ActiveChallenges)
	assert.Equal(t, 1, st.CompletedChallenges)
	assert.Equal(t, 1, st.FailedChallenges)
	assert.Equal(t, 2, st.TotalWakeUps)
	assert.Equal(t, "0.6", st.TotalDeposited.String())
	assert.Equal(t, "33.33", st.SuccessRate)
}

func TestStats_NoChallenges(t *testing.T) {
	env := newTestEnv(t)

	st, err := env.engine.Stats(context.Background(), "0xnobody")
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalChallenges)
	assert.Equal(t, "0.00", st.SuccessRate)
}

func TestSummarize_RoundsSuccessRate(t *testing.T) {
	list := []ir.Challenge{
		{Status: ir.StatusCompleted, Deposit: ir.MustAmount("1")},
		{Status: ir.StatusCompleted, Deposit: ir.MustAmount("1")},
		{Status: ir.StatusFailed, Deposit: ir.MustAmount("1")},
	}
	assert.Equal(t, "66.67", summarize("0xa", list).SuccessRate)
	assert.Equal(t, "100.00", summarize("0xa", list[:2]).SuccessRate)
}

func TestListByOwnerAndListSocial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.create(t, "0xa", "0.1", 1)
	env.create(t, "0xb", "0.1", 1)
	env.create(t, "0xa", "0.1", 1)
	env.createSocial(t, "0xa", "0.1", 1, "0xb", "0xc")
	env.createSocial(t, "0xc", "0.1", 1, "0xa", "0xc")

	list, err := env.engine.ListByOwner(ctx, "0xA")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(0), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)

	social, err := env.engine.ListSocial(ctx, "0xc")
	require.NoError(t, err)
	assert.Len(t, social, 2)

	social, err = env.engine.ListSocial(ctx, "0xa")
	require.NoError(t, err)
	require.Len(t, social, 1, "creating is not participating")
	assert.Equal(t, int64(1), social[0].ID)
}

func TestEvents_LogOrderAndChallengeFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.create(t, "0xa", "0.1", 1)
	env.createSocial(t, "0xc", "0.1", 1, "0xa", "0xc")
	_, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	require.NoError(t, err)

	all, err := env.engine.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, ir.MustEventID(e), e.ID)
		assert.Equal(t, testStart, e.At)
	}

	tail, err := env.engine.Events(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, ir.EventSocialChallengeCreated, tail[0].Kind)

	personal, err := env.engine.ChallengeEvents(ctx, ir.ModePersonal, c.ID)
	require.NoError(t, err)
	require.Len(t, personal, 2)
	assert.Equal(t, ir.EventWakeUpConfirmed, personal[1].Kind)
	assert.Equal(t, int64(1), personal[1].Data["days_completed"])
}

func TestRejectedOperationsEmitNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.create(t, "0xa", "0.1", 1)

	_, _ = env.engine.ConfirmWakeUp(ctx, c.ID, "0xb")
	_, _ = env.engine.Finalize(ctx, c.ID, "0xa")
	_, _ = env.engine.Create(ctx, CreateRequest{Owner: "0xa"})

	events, err := env.engine.Events(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
