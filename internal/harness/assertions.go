package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It carries the event log to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Kinds    []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Kinds) > 0 {
		fmt.Fprintf(&buf, "\nEvent log:\n")
		for i, k := range e.Kinds {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, k)
		}
	}
	return buf.String()
}

// assertEventOrder checks that the kinds appear in the log in the given
// relative order. Other events may appear in between.
func assertEventOrder(result *Result, a Assertion) error {
	kinds := result.EventKinds()
	next := 0
	for _, k := range kinds {
		if next < len(a.Kinds) && k == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: strings.Join(a.Kinds, " -> "),
		Actual:   fmt.Sprintf("stopped matching at %s", a.Kinds[next]),
		Kinds:    kinds,
	}
}

func assertEventCount(result *Result, a Assertion) error {
	kinds := result.EventKinds()
	n := 0
	for _, k := range kinds {
		if k == a.Kind {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%s x%d", a.Kind, a.Count),
		Actual:   fmt.Sprintf("%s x%d", a.Kind, n),
		Kinds:    kinds,
	}
}

// assertRecord subset-matches the JSON form of a fetched record.
func assertRecord(typ, what string, record any, expect map[string]any) error {
	actual, err := toJSONMap(record)
	if err != nil {
		return fmt.Errorf("%s %s: %w", typ, what, err)
	}
	if diff := matchSubset(actual, expect); diff != "" {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s %s matches %v", typ, what, expect),
			Actual:   diff,
		}
	}
	return nil
}

func assertTransferCount(ctx context.Context, eng *engine.Engine, a Assertion) error {
	transfers, err := eng.Transfers(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, tr := range transfers {
		if a.Kind == "" || string(tr.Kind) == a.Kind {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	what := "transfers"
	if a.Kind != "" {
		what = a.Kind + " transfers"
	}
	return &AssertionError{
		Type:     AssertTransferCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", n, what),
	}
}

func assertAuditClean(ctx context.Context, eng *engine.Engine) error {
	report, err := eng.Audit(ctx)
	if err != nil {
		return err
	}
	if report.Clean() {
		return nil
	}
	problems := append([]string{}, report.Problems...)
	for _, d := range report.LedgerDrift {
		problems = append(problems, fmt.Sprintf("ledger drift for %s", d.Identity))
	}
	return &AssertionError{
		Type:     AssertAuditClean,
		Expected: "no problems",
		Actual:   strings.Join(problems, "; "),
	}
}

// matchSubset reports the first difference between actual and the keys of
// expected, or "" when every expected key matches.
func matchSubset(actual, expected map[string]any) string {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return fmt.Sprintf("%s: missing", k)
		}
		if diff := matchValue(got, expected[k]); diff != "" {
			return fmt.Sprintf("%s: %s", k, diff)
		}
	}
	return ""
}

// matchValue compares one value. Maps match as subsets, lists element by
// element, and scalars by their printed form so that YAML integers match
// JSON numbers and decimal strings.
func matchValue(actual, expected any) string {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return fmt.Sprintf("want object, got %v", actual)
		}
		return matchSubset(act, exp)
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return fmt.Sprintf("want list, got %v", actual)
		}
		if len(act) != len(exp) {
			return fmt.Sprintf("want %d items, got %d", len(exp), len(act))
		}
		for i := range exp {
			if diff := matchValue(act[i], exp[i]); diff != "" {
				return fmt.Sprintf("[%d]: %s", i, diff)
			}
		}
		return ""
	case nil:
		if actual != nil {
			return fmt.Sprintf("want null, got %v", actual)
		}
		return ""
	default:
		if fmt.Sprint(actual) != fmt.Sprint(exp) {
			return fmt.Sprintf("want %v, got %v", exp, actual)
		}
		return ""
	}
}

// EvaluateAssertions checks every assertion against the engine and result.
// Returns one message per failed assertion.
func EvaluateAssertions(ctx context.Context, eng *engine.Engine, result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertEventOrder:
			err = assertEventOrder(result, a)
		case AssertEventCount:
			err = assertEventCount(result, a)
		case AssertLedger:
			var entry ir.LedgerEntry
			if entry, err = eng.Profile(ctx, ir.Identity(a.Identity)); err == nil {
				err = assertRecord(a.Type, a.Identity, entry, a.Expect)
			}
		case AssertChallenge:
			var c *ir.Challenge
			if c, err = eng.Get(ctx, a.ID); err == nil {
				err = assertRecord(a.Type, fmt.Sprint(a.ID), c, a.Expect)
			}
		case AssertSocialChallenge:
			var s *ir.SocialChallenge
			if s, err = eng.GetSocial(ctx, a.ID); err == nil {
				err = assertRecord(a.Type, fmt.Sprint(a.ID), s, a.Expect)
			}
		case AssertTransferCount:
			err = assertTransferCount(ctx, eng, a)
		case AssertAuditClean:
			err = assertAuditClean(ctx, eng)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
