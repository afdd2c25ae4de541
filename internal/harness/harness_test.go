package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func TestGoldenScenarios(t *testing.T) {
	for _, name := range []string{"personal_full_attendance", "social_mixed_attendance"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata/scenarios", name+".yaml"))
			require.NoError(t, err)
			RunWithGolden(t, s)
		})
	}
}

func TestAllScenariosPass(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			s, err := LoadScenario(f)
			require.NoError(t, err)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Steps, len(s.Steps))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/social_mixed_attendance.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := Trace(first.Events)
	require.NoError(t, err)
	b, err := Trace(second.Events)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_RecordsStepOutcomes(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/personal_full_attendance.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, StepResult{Index: 0, Op: OpCreate, As: "0xAlice"}, result.Steps[0])
	assert.Equal(t, "DUPLICATE_CONFIRMATION", result.Steps[2].Code)
	assert.Equal(t, StepResult{Index: 3, Advance: "24h"}, result.Steps[3])
	assert.Equal(t, []string{
		string(ir.EventChallengeCreated),
		string(ir.EventWakeUpConfirmed),
		string(ir.EventWakeUpConfirmed),
		string(ir.EventChallengeFinalized),
	}, result.EventKinds())
}

func TestRun_UnexpectedOutcomesFail(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectations
description: "every expectation here is wrong"
steps:
  - op: create
    as: "0xa"
    args: { deposit: "0.1", wake_up_time: 0, duration_days: 1 }
    expect: { error: INVALID_AMOUNT }
  - op: confirm
    as: "0xb"
    args: { id: 0 }
  - op: confirm
    as: "0xa"
    args: { id: 7 }
    expect: { error: TOO_EARLY }
  - op: confirm
    as: "0xa"
    args: { id: 0 }
    expect:
      result: { days_completed: 5 }
assertions:
  - type: event_count
    kind: ChallengeCreated
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "expected INVALID_AMOUNT, got success")
	assert.Contains(t, result.Errors[1], "unexpected rejection UNAUTHORIZED")
	assert.Contains(t, result.Errors[2], "expected TOO_EARLY, got NOT_FOUND")
	assert.Contains(t, result.Errors[3], "days_completed: want 5, got 1")
	assert.Contains(t, result.Errors[4], "ChallengeCreated x2")
}

func TestRun_MalformedArgsAreFatal(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: missing_arg
description: "confirm without an id"
steps:
  - op: confirm
    as: "0xa"
    args: { challenge: 0 }
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing arg "id"`)
}

func TestRun_UnquotedDecimalRejected(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: float_deposit
description: "amounts must be quoted"
steps:
  - op: create
    as: "0xa"
    args: { deposit: 0.1, wake_up_time: 0, duration_days: 1 }
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quote decimal amounts")
}

func TestRun_AllowListConfig(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: allowlist
description: "any listed oracle may attest"
config:
  oracle_allowlist: ["0xo1", "0xo2"]
steps:
  - op: create_social
    as: "0xa"
    args: { participants: ["0xa", "0xb"], deposit_per_participant: "1", wake_up_time: 0, duration_days: 1 }
  - op: confirm_social
    as: "0xo2"
    args: { id: 0, participant: "0xa" }
  - op: confirm_social
    as: "0xoracle"
    args: { id: 0, participant: "0xb" }
    expect: { error: UNAUTHORIZED }
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
