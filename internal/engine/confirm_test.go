package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/oracle"
)

func TestConfirmWakeUp_OncePerCalendarDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.create(t, "0xa", "0.1", 7)

	got, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DaysCompleted)
	assert.Equal(t, []ir.DayIndex{c.StartDay}, got.ConfirmedDays)

	// Later the same calendar day, regardless of hour.
	env.clock.Advance(17 * time.Hour)
	env.assertUnchanged(t, func() {
		_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
		requireCode(t, err, ErrCodeDuplicateConfirmation)
	})
	assert.Contains(t, err.Error(), "Already confirmed for today")

	// Just after midnight it is a new day.
	env.clock.Advance(time.Hour)
	got, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	require.NoError(t, err)
	assert.Equal(t, 2, got.DaysCompleted)
}

func TestConfirmWakeUp_EveryDayOfWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.create(t, "0xa", "0.1", 7)

	for i := 0; i < 7; i++ {
		got, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
		require.NoError(t, err, "day %d", i)
		assert.Equal(t, i+1, got.DaysCompleted)
		assert.LessOrEqual(t, got.DaysCompleted, got.DurationDays)
		env.clock.Advance(day)
	}

	// Day 8 is past the funded window even though the challenge is still
	// Active until finalized.
	_, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	requireCode(t, err, ErrCodeNotActive)
	assert.Contains(t, err.Error(), "Challenge window has closed")

	got, err := env.engine.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.DaysCompleted)
}

func TestConfirmWakeUp_WindowClosesBeforeEndTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.create(t, "0xa", "0.1", 1)

	// 00:30 on the next calendar day is before EndTime (06:30) but outside
	// the one funded day.
	env.clock.Set(c.EndTime.Add(-6 * time.Hour))
	_, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	requireCode(t, err, ErrCodeNotActive)
}

func TestConfirmWakeUp_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.create(t, "0xa", "0.1", 1)

	env.assertUnchanged(t, func() {
		_, err := env.engine.ConfirmWakeUp(ctx, 99, "0xa")
		requireCode(t, err, ErrCodeNotFound)

		_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xb")
		requireCode(t, err, ErrCodeUnauthorized)
		assert.Contains(t, err.Error(), "Not challenge owner")

		_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "")
		requireCode(t, err, ErrCodeUnauthorized)
	})

	// Owner matching is case-insensitive.
	_, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0XA")
	require.NoError(t, err)
}

func TestConfirmWakeUp_RejectedAfterSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.create(t, "0xa", "0.1", 1)

	env.clock.Set(c.EndTime)
	_, err := env.engine.Finalize(ctx, c.ID, "0xa")
	require.NoError(t, err)

	_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	requireCode(t, err, ErrCodeNotActive)
	assert.Contains(t, err.Error(), "Challenge not active")
}

func TestConfirmWakeUp_DeadlineEnforcement(t *testing.T) {
	env := newTestEnv(t, WithWakeDeadline(true))
	ctx := context.Background()
	start := env.engine.Calendar().DayStart(env.engine.Calendar().DayOf(testStart))

	// Wake-up time 06:00; created at 05:30.
	env.clock.Set(start.Add(5*time.Hour + 30*time.Minute))
	c := env.create(t, "0xa", "0.1", 2)

	env.clock.Set(start.Add(6 * time.Hour))
	_, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	assert.NoError(t, err, "exactly at the deadline is on time")

	env.clock.Set(start.Add(day + 6*time.Hour + time.Second))
	_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	requireCode(t, err, ErrCodeMissedDeadline)
}

func TestCreate_RejectedAfterFirstDeadline(t *testing.T) {
	env := newTestEnv(t, WithWakeDeadline(true))
	ctx := context.Background()
	amount := ir.MustAmount("0.1")

	// testStart is 06:30, past the 06:00 wake-up time.
	env.assertUnchanged(t, func() {
		_, err := env.engine.Create(ctx, CreateRequest{
			Owner: "0xa", Deposit: amount, WakeUpTime: 6 * 3600, DurationDays: 2, Attached: amount,
		})
		requireCode(t, err, ErrCodeMissedDeadline)

		_, err = env.engine.CreateSocial(ctx, CreateSocialRequest{
			Creator:               "0xa",
			Participants:          []ir.Identity{"0xa", "0xb"},
			DepositPerParticipant: amount,
			WakeUpTime:            6 * 3600,
			DurationDays:          2,
			Attached:              ir.MustAmount("0.2"),
		})
		requireCode(t, err, ErrCodeMissedDeadline)
	})

	// A later wake-up time the same day is still reachable.
	c, err := env.engine.Create(ctx, CreateRequest{
		Owner: "0xa", Deposit: amount, WakeUpTime: 7 * 3600, DurationDays: 1, Attached: amount,
	})
	require.NoError(t, err)
	_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	require.NoError(t, err)
}

func TestFinalize_FullAttendanceUnderDeadlines(t *testing.T) {
	env := newTestEnv(t, WithWakeDeadline(true))
	ctx := context.Background()
	start := env.engine.Calendar().DayStart(env.engine.Calendar().DayOf(testStart))

	env.clock.Set(start.Add(5 * time.Hour))
	c := env.create(t, "0xa", "0.1", 2)
	for i := 0; i < 2; i++ {
		env.clock.Set(start.Add(time.Duration(i)*day + 5*time.Hour + 45*time.Minute))
		_, err := env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
		require.NoError(t, err)
	}

	env.clock.Set(c.EndTime)
	got, err := env.engine.Finalize(ctx, c.ID, "0xa")
	require.NoError(t, err)
	assert.Equal(t, ir.StatusCompleted, got.Status)
}

func TestConfirmWakeUp_DayBoundary(t *testing.T) {
	cal, err := ir.NewCalendar(5 * time.Hour)
	require.NoError(t, err)
	env := newTestEnv(t, WithCalendar(cal))
	ctx := context.Background()

	// 06:30 UTC is 01:30 at UTC-5; 04:59 UTC the next morning is still the
	// same local day.
	c := env.create(t, "0xa", "0.1", 2)
	_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	require.NoError(t, err)

	env.clock.Set(time.Date(2026, 10, 16, 4, 59, 0, 0, time.UTC))
	_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	requireCode(t, err, ErrCodeDuplicateConfirmation)

	env.clock.Set(time.Date(2026, 10, 16, 5, 0, 0, 0, time.UTC))
	_, err = env.engine.ConfirmWakeUp(ctx, c.ID, "0xa")
	require.NoError(t, err)
}

func TestConfirmSocialWakeUp_OracleOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.createSocial(t, "0xc", "0.1", 2, "0xa", "0xb", "0xc")

	env.assertUnchanged(t, func() {
		for _, caller := range []ir.Identity{"0xa", "0xc", testAdmin, ""} {
			_, err := env.engine.ConfirmSocialWakeUp(ctx, s.ID, caller, "0xa")
			requireCode(t, err, ErrCodeUnauthorized)
		}
	})

	got, err := env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xA")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Participant("0xa").DaysCompleted)
	assert.Equal(t, 0, got.Participant("0xb").DaysCompleted)

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xa")
	requireCode(t, err, ErrCodeDuplicateConfirmation)

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xb")
	assert.NoError(t, err, "slots are independent")
}

func TestConfirmSocialWakeUp_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.createSocial(t, "0xc", "0.1", 1, "0xa", "0xb")

	_, err := env.engine.ConfirmSocialWakeUp(ctx, 5, testOracle, "0xa")
	requireCode(t, err, ErrCodeNotFound)

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xz")
	requireCode(t, err, ErrCodeNotParticipant)

	env.clock.Advance(day)
	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xa")
	requireCode(t, err, ErrCodeNotActive)

	_, err = env.engine.FinalizeSocial(ctx, s.ID, "0xc")
	require.NoError(t, err)
	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xa")
	requireCode(t, err, ErrCodeNotActive)
	assert.Contains(t, err.Error(), "already settled")
}

func TestConfirmSocialWakeUp_AllowListGate(t *testing.T) {
	env := newTestEnv(t, WithGate(oracle.NewAllowListGate("0xo1", "0xo2")))
	ctx := context.Background()
	s := env.createSocial(t, "0xc", "0.1", 1, "0xa", "0xb")

	_, err := env.engine.ConfirmSocialWakeUp(ctx, s.ID, "0xo1", "0xa")
	require.NoError(t, err)
	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, "0xo2", "0xb")
	require.NoError(t, err)
	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xb")
	requireCode(t, err, ErrCodeUnauthorized)
}

func TestConfirmSocialWakeUp_RegoGate(t *testing.T) {
	gate, err := oracle.NewRegoGate(context.Background(), oracle.DefaultPolicy)
	require.NoError(t, err)
	env := newTestEnv(t, WithGate(gate))
	ctx := context.Background()
	s := env.createSocial(t, "0xc", "0.1", 1, "0xa", "0xb")

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, "0xa", "0xa")
	requireCode(t, err, ErrCodeUnauthorized)
	assert.ErrorIs(t, err, oracle.ErrNotOracle)

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xa")
	assert.NoError(t, err)
}
