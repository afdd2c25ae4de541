package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func TestOracle_DefaultsToConfigured(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.engine.Oracle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Identity(testOracle), got)
}

func TestSetOracleAddress_RotationRevokesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.createSocial(t, "0xc", "0.1", 1, "0xa", "0xb")

	_, err := env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xa")
	require.NoError(t, err)

	require.NoError(t, env.engine.SetOracleAddress(ctx, testAdmin, "0xNEW"))
	got, err := env.engine.Oracle(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.Identity("0xnew"), got)

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, testOracle, "0xb")
	requireCode(t, err, ErrCodeUnauthorized)
	assert.Contains(t, err.Error(), "Only oracle can call")

	_, err = env.engine.ConfirmSocialWakeUp(ctx, s.ID, "0xnew", "0xb")
	require.NoError(t, err)

	events, err := env.engine.Events(ctx, 0, 0)
	require.NoError(t, err)
	var changed *ir.Event
	for i := range events {
		if events[i].Kind == ir.EventOracleChanged {
			changed = &events[i]
		}
	}
	require.NotNil(t, changed)
	assert.Equal(t, testOracle, changed.Data["previous"])
	assert.Equal(t, "0xnew", changed.Data["oracle"])
}

func TestSetOracleAddress_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.assertUnchanged(t, func() {
		err := env.engine.SetOracleAddress(ctx, testOracle, "0xnew")
		requireCode(t, err, ErrCodeUnauthorized)

		err = env.engine.SetOracleAddress(ctx, "", "0xnew")
		requireCode(t, err, ErrCodeUnauthorized)

		err = env.engine.SetOracleAddress(ctx, testAdmin, "   ")
		requireCode(t, err, ErrCodeInvalidIdentity)
	})
}
