package oracle

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// PolicyQuery is the rule a Rego policy must define.
const PolicyQuery = "data.stakewake.oracle.allow"

// DefaultPolicy reproduces AddressGate: only the configured oracle may
// attest.
const DefaultPolicy = `package stakewake.oracle

default allow := false

allow if {
	input.caller != ""
	input.caller == input.oracle
}
`

// RegoGate evaluates an OPA policy for every attestation. The policy sees
// {caller, oracle, challenge_id, participant} as input and must produce a
// boolean at PolicyQuery. Anything other than true denies.
type RegoGate struct {
	query rego.PreparedEvalQuery
}

// NewRegoGate compiles policy once.
func NewRegoGate(ctx context.Context, policy string) (*RegoGate, error) {
	compiler, err := ast.CompileModules(map[string]string{"oracle.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile oracle policy: %w", err)
	}
	query, err := rego.New(
		rego.Query(PolicyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare oracle policy: %w", err)
	}
	return &RegoGate{query: query}, nil
}

// LoadRegoGate reads a policy file and compiles it.
func LoadRegoGate(ctx context.Context, path string) (*RegoGate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oracle policy: %w", err)
	}
	return NewRegoGate(ctx, string(data))
}

// Authorize implements Gate.
func (g *RegoGate) Authorize(ctx context.Context, a Attestation) error {
	input := map[string]interface{}{
		"caller":       string(a.Caller),
		"oracle":       string(a.Oracle),
		"challenge_id": a.ChallengeID,
		"participant":  string(a.Participant),
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("%w: policy evaluation: %v", ErrNotOracle, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("%w: policy returned no decision", ErrNotOracle)
	}
	if allow, ok := rs[0].Expressions[0].Value.(bool); !ok || !allow {
		return fmt.Errorf("%w: %s", ErrNotOracle, a.Caller)
	}
	return nil
}
