package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/stakewake/internal/custody"
	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/oracle"
	"github.com/roach88/stakewake/internal/store"
	"github.com/roach88/stakewake/internal/testutil"
)

// Harness drives one engine through a scenario.
type Harness struct {
	engine *engine.Engine
	clock  *testutil.ManualClock
	vault  *custody.Vault
}

// Run executes a scenario in a fresh in-memory database and returns the
// result. An error means the scenario itself is broken (bad arguments, a
// store failure); expectation and assertion failures are reported in the
// result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := New(st, scenario.Config)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, scenario)
}

// New builds a harness over st configured by cfg.
func New(st *store.Store, cfg Config) (*Harness, error) {
	start := DefaultStart
	if cfg.Start != "" {
		t, err := time.Parse(time.RFC3339, cfg.Start)
		if err != nil {
			return nil, fmt.Errorf("config.start: %w", err)
		}
		start = t
	}
	var boundary time.Duration
	if cfg.DayBoundary != "" {
		d, err := time.ParseDuration(cfg.DayBoundary)
		if err != nil {
			return nil, fmt.Errorf("config.day_boundary: %w", err)
		}
		boundary = d
	}
	cal, err := ir.NewCalendar(boundary)
	if err != nil {
		return nil, err
	}

	admin, trusted := cfg.Admin, cfg.Oracle
	if admin == "" {
		admin = DefaultAdmin
	}
	if trusted == "" {
		trusted = DefaultOracle
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		clock: testutil.NewManualClock(start),
		vault: custody.NewVault(logger),
	}
	opts := []engine.Option{
		engine.WithClock(h.clock),
		engine.WithCalendar(cal),
		engine.WithCustodian(h.vault),
		engine.WithReceiptGenerator(testutil.NewFixedGenerator("receipt")),
		engine.WithLogger(logger),
		engine.WithAdmin(admin),
		engine.WithOracle(trusted),
		engine.WithWakeDeadline(cfg.EnforceWakeDeadline),
	}
	if len(cfg.OracleAllowList) > 0 {
		opts = append(opts, engine.WithGate(oracle.NewAllowListGate(cfg.OracleAllowList...)))
	}
	if cfg.MaxDurationDays > 0 {
		opts = append(opts, engine.WithMaxDurationDays(cfg.MaxDurationDays))
	}
	h.engine = engine.New(st, opts...)
	return h, nil
}

// Engine returns the engine under test.
func (h *Harness) Engine() *engine.Engine {
	return h.engine
}

// Vault returns the in-memory custodian settlements land in.
func (h *Harness) Vault() *custody.Vault {
	return h.vault
}

// Run executes every step, then evaluates the assertions.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	for i, step := range scenario.Steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return nil, fmt.Errorf("steps[%d].advance: %w", i, err)
			}
			h.clock.Advance(d)
			result.Steps = append(result.Steps, StepResult{Index: i, Advance: step.Advance})
			continue
		}

		out, err := h.execute(ctx, step)
		sr := StepResult{Index: i, Op: step.Op, As: step.As}
		var argErr *argError
		if errors.As(err, &argErr) {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		if err != nil {
			code := engine.CodeOf(err)
			if code == "" {
				return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
			}
			sr.Code = string(code)
		}
		result.Steps = append(result.Steps, sr)
		h.checkStep(i, step, sr, out, result)
	}

	events, err := h.engine.Events(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	result.Events = events

	for _, msg := range EvaluateAssertions(ctx, h.engine, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// checkStep compares a step's outcome with its expect clause.
func (h *Harness) checkStep(i int, step Step, sr StepResult, out any, result *Result) {
	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}
	switch {
	case sr.Code != "" && want == "":
		result.AddError(fmt.Sprintf("steps[%d] (%s): unexpected rejection %s", i, step.Op, sr.Code))
		return
	case sr.Code == "" && want != "":
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got success", i, step.Op, want))
		return
	case sr.Code != want:
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got %s", i, step.Op, want, sr.Code))
		return
	}

	if sr.Code != "" || step.Expect == nil || len(step.Expect.Result) == 0 {
		return
	}
	actual, err := toJSONMap(out)
	if err != nil {
		result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Op, err))
		return
	}
	if diff := matchSubset(actual, step.Expect.Result); diff != "" {
		result.AddError(fmt.Sprintf("steps[%d] (%s): result mismatch: %s", i, step.Op, diff))
	}
}

// execute runs one operation and returns what it produced.
func (h *Harness) execute(ctx context.Context, step Step) (any, error) {
	a := args(step.Args)
	who := ir.Identity(step.As)

	switch step.Op {
	case OpCreate:
		deposit, err := a.amount("deposit")
		if err != nil {
			return nil, err
		}
		wake, err := a.integer("wake_up_time")
		if err != nil {
			return nil, err
		}
		days, err := a.integer("duration_days")
		if err != nil {
			return nil, err
		}
		attached, ok, err := a.optAmount("value")
		if err != nil {
			return nil, err
		}
		if !ok {
			attached = deposit
		}
		return h.engine.Create(ctx, engine.CreateRequest{
			Owner:        who,
			Deposit:      deposit,
			WakeUpTime:   wake,
			DurationDays: int(days),
			Attached:     attached,
		})

	case OpCreateSocial:
		participants, err := a.identities("participants")
		if err != nil {
			return nil, err
		}
		deposit, err := a.amount("deposit_per_participant")
		if err != nil {
			return nil, err
		}
		wake, err := a.integer("wake_up_time")
		if err != nil {
			return nil, err
		}
		days, err := a.integer("duration_days")
		if err != nil {
			return nil, err
		}
		attached, ok, err := a.optAmount("value")
		if err != nil {
			return nil, err
		}
		if !ok {
			attached = deposit.Mul(decimal.NewFromInt(int64(len(participants))))
		}
		return h.engine.CreateSocial(ctx, engine.CreateSocialRequest{
			Creator:               who,
			Participants:          participants,
			DepositPerParticipant: deposit,
			WakeUpTime:            wake,
			DurationDays:          int(days),
			Attached:              attached,
		})

	case OpConfirm, OpFinalize, OpFinalizeSocial:
		id, err := a.integer("id")
		if err != nil {
			return nil, err
		}
		switch step.Op {
		case OpConfirm:
			return h.engine.ConfirmWakeUp(ctx, id, who)
		case OpFinalize:
			return h.engine.Finalize(ctx, id, who)
		default:
			return h.engine.FinalizeSocial(ctx, id, who)
		}

	case OpConfirmSocial:
		id, err := a.integer("id")
		if err != nil {
			return nil, err
		}
		participant, err := a.str("participant")
		if err != nil {
			return nil, err
		}
		return h.engine.ConfirmSocialWakeUp(ctx, id, who, ir.Identity(participant))

	case OpSetOracle:
		next, err := a.str("oracle")
		if err != nil {
			return nil, err
		}
		if err := h.engine.SetOracleAddress(ctx, who, ir.Identity(next)); err != nil {
			return nil, err
		}
		current, err := h.engine.Oracle(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"oracle": string(current)}, nil

	default:
		return nil, &argError{msg: fmt.Sprintf("unknown op %q", step.Op)}
	}
}

// argError is a malformed step, as opposed to an engine rejection.
type argError struct {
	msg string
}

func (e *argError) Error() string {
	return e.msg
}

type args map[string]any

func (a args) str(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", &argError{msg: fmt.Sprintf("missing arg %q", key)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &argError{msg: fmt.Sprintf("arg %q: want string, got %T", key, v)}
	}
	return s, nil
}

func (a args) integer(key string) (int64, error) {
	v, ok := a[key]
	if !ok {
		return 0, &argError{msg: fmt.Sprintf("missing arg %q", key)}
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	default:
		return 0, &argError{msg: fmt.Sprintf("arg %q: want integer, got %T", key, v)}
	}
}

func (a args) amount(key string) (decimal.Decimal, error) {
	d, ok, err := a.optAmount(key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, &argError{msg: fmt.Sprintf("missing arg %q", key)}
	}
	return d, nil
}

// optAmount accepts quoted decimals ("0.1") and plain integers.
func (a args) optAmount(key string) (decimal.Decimal, bool, error) {
	v, ok := a[key]
	if !ok {
		return decimal.Zero, false, nil
	}
	switch n := v.(type) {
	case string:
		d, err := ir.ParseAmount(n)
		if err != nil {
			return decimal.Zero, false, &argError{msg: fmt.Sprintf("arg %q: %v", key, err)}
		}
		return d, true, nil
	case int:
		return decimal.NewFromInt(int64(n)), true, nil
	default:
		return decimal.Zero, false, &argError{msg: fmt.Sprintf("arg %q: quote decimal amounts, got %T", key, v)}
	}
}

func (a args) identities(key string) ([]ir.Identity, error) {
	v, ok := a[key]
	if !ok {
		return nil, &argError{msg: fmt.Sprintf("missing arg %q", key)}
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &argError{msg: fmt.Sprintf("arg %q: want list, got %T", key, v)}
	}
	out := make([]ir.Identity, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &argError{msg: fmt.Sprintf("arg %q[%d]: want string, got %T", key, i, item)}
		}
		out[i] = ir.Identity(s)
	}
	return out, nil
}

// toJSONMap renders v the way API clients see it, with numbers kept exact.
func toJSONMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return m, nil
}
