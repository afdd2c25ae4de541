package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stakewake/internal/ir"
)

// Trace renders an event log one canonical JSON object per line. Each line
// carries the event id alongside the fields it is derived from, so a golden
// diff shows both content and hashing changes.
func Trace(events []ir.Event) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range events {
		m := e.CanonicalMap()
		m["id"] = e.ID
		line, err := ir.MarshalCanonical(m)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.Seq, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario, fails the test if it does not pass,
// and compares its event log against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}
	if !result.Pass {
		t.Errorf("scenario %s failed:\n%s", scenario.Name, joinErrors(result.Errors))
	}
	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	trace, err := Trace(result.Events)
	if err != nil {
		t.Fatalf("render trace: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, trace)
}

func joinErrors(errs []string) string {
	var buf bytes.Buffer
	for _, e := range errs {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	return buf.String()
}
