package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressGate(t *testing.T) {
	ctx := context.Background()
	g := AddressGate{}

	assert.NoError(t, g.Authorize(ctx, Attestation{Caller: "0xo", Oracle: "0xo"}))
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "0xa", Oracle: "0xo"}), ErrNotOracle)
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "", Oracle: ""}), ErrNotOracle)
}

func TestAllowListGate(t *testing.T) {
	ctx := context.Background()
	g := NewAllowListGate("0xO1", " 0xo2 ", "")

	assert.Equal(t, 2, g.Len())
	assert.NoError(t, g.Authorize(ctx, Attestation{Caller: "0xo1"}))
	assert.NoError(t, g.Authorize(ctx, Attestation{Caller: "0xo2", Oracle: "0xsomeoneelse"}))
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "0xo3", Oracle: "0xo3"}), ErrNotOracle)
}

func TestRegoGate_DefaultPolicy(t *testing.T) {
	ctx := context.Background()
	g, err := NewRegoGate(ctx, DefaultPolicy)
	require.NoError(t, err)

	assert.NoError(t, g.Authorize(ctx, Attestation{Caller: "0xo", Oracle: "0xo", ChallengeID: 3, Participant: "0xa"}))
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "0xa", Oracle: "0xo"}), ErrNotOracle)
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{}), ErrNotOracle)
}

func TestRegoGate_CustomPolicy(t *testing.T) {
	ctx := context.Background()
	policy := `package stakewake.oracle

default allow := false

trusted := {"0xo1", "0xo2"}

allow if {
	trusted[input.caller]
	input.caller != input.participant
}
`
	g, err := NewRegoGate(ctx, policy)
	require.NoError(t, err)

	assert.NoError(t, g.Authorize(ctx, Attestation{Caller: "0xo1", Participant: "0xa"}))
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "0xo2", Participant: "0xo2"}), ErrNotOracle,
		"an oracle may not attest for itself")
	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "0xz", Participant: "0xa"}), ErrNotOracle)
}

func TestRegoGate_NonBooleanDecisionDenies(t *testing.T) {
	ctx := context.Background()
	g, err := NewRegoGate(ctx, "package stakewake.oracle\n\nallow := \"yes\"\n")
	require.NoError(t, err)

	assert.ErrorIs(t, g.Authorize(ctx, Attestation{Caller: "0xo"}), ErrNotOracle)
}

func TestNewRegoGate_RejectsBadPolicy(t *testing.T) {
	_, err := NewRegoGate(context.Background(), "package stakewake.oracle\n\nallow if {")
	assert.Error(t, err)
}

func TestLoadRegoGate_MissingFile(t *testing.T) {
	_, err := LoadRegoGate(context.Background(), t.TempDir()+"/missing.rego")
	assert.Error(t, err)
}
