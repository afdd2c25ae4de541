package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStart is the clock reading a scenario begins at unless its config
// names another.
var DefaultStart = time.Date(2026, 10, 15, 6, 30, 0, 0, time.UTC)

// Default identities used when a scenario config leaves them empty.
const (
	DefaultAdmin  = "0xadmin"
	DefaultOracle = "0xoracle"
)

// Scenario is one scripted run.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	Config Config `yaml:"config,omitempty"`

	// Steps run in order against a single engine.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Config sets up the engine for a scenario.
type Config struct {
	Start               string   `yaml:"start,omitempty"`
	DayBoundary         string   `yaml:"day_boundary,omitempty"`
	Admin               string   `yaml:"admin,omitempty"`
	Oracle              string   `yaml:"oracle,omitempty"`
	OracleAllowList     []string `yaml:"oracle_allowlist,omitempty"`
	EnforceWakeDeadline bool     `yaml:"enforce_wake_deadline,omitempty"`
	MaxDurationDays     int      `yaml:"max_duration_days,omitempty"`
}

// Step is either an operation (Op set) or a clock advance (Advance set).
type Step struct {
	Op      string         `yaml:"op,omitempty"`
	As      string         `yaml:"as,omitempty"`
	Args    map[string]any `yaml:"args,omitempty"`
	Expect  *Expect        `yaml:"expect,omitempty"`
	Advance string         `yaml:"advance,omitempty"`
}

// Expect describes how a step must end.
type Expect struct {
	// Error is the rejection code the step must fail with.
	Error string `yaml:"error,omitempty"`

	// Result is matched as a subset against the returned challenge.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion checks the state left behind by a scenario.
type Assertion struct {
	Type     string         `yaml:"type"`
	Kinds    []string       `yaml:"kinds,omitempty"`
	Kind     string         `yaml:"kind,omitempty"`
	Count    int            `yaml:"count,omitempty"`
	Identity string         `yaml:"identity,omitempty"`
	ID       int64          `yaml:"id,omitempty"`
	Expect   map[string]any `yaml:"expect,omitempty"`
}

// Operation names.
const (
	OpCreate         = "create"
	OpCreateSocial   = "create_social"
	OpConfirm        = "confirm"
	OpConfirmSocial  = "confirm_social"
	OpFinalize       = "finalize"
	OpFinalizeSocial = "finalize_social"
	OpSetOracle      = "set_oracle"
)

// Assertion type constants.
const (
	AssertEventOrder      = "event_order"
	AssertEventCount      = "event_count"
	AssertLedger          = "ledger"
	AssertChallenge       = "challenge"
	AssertSocialChallenge = "social_challenge"
	AssertTransferCount   = "transfer_count"
	AssertAuditClean      = "audit_clean"
)

// LoadScenario reads, schema-checks and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario is LoadScenario for bytes already in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateShape(doc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks what the schema cannot: parsable times and
// per-type assertion requirements.
func validateScenario(s *Scenario) error {
	if s.Config.Start != "" {
		if _, err := time.Parse(time.RFC3339, s.Config.Start); err != nil {
			return fmt.Errorf("config.start: %w", err)
		}
	}
	if s.Config.DayBoundary != "" {
		if _, err := time.ParseDuration(s.Config.DayBoundary); err != nil {
			return fmt.Errorf("config.day_boundary: %w", err)
		}
	}

	for i, step := range s.Steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("steps[%d].advance: %w", i, err)
			}
			if d < 0 {
				return fmt.Errorf("steps[%d].advance: clock cannot move backwards", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertEventOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
	case AssertLedger:
		if a.Identity == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: identity and expect are required for ledger", index)
		}
	case AssertChallenge, AssertSocialChallenge:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertTransferCount, AssertAuditClean:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
