package ir

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a challenge or of one social participant.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Challenge is a single participant's deposit-backed wake-up commitment.
//
// INVARIANTS:
//   - Status moves Active -> Completed|Failed exactly once, at or after EndTime
//   - DaysCompleted == len(ConfirmedDays) <= DurationDays
//   - Deposit, DurationDays, WakeUpTime and StartTime never change
type Challenge struct {
	ID            int64           `json:"id"`
	Owner         Identity        `json:"owner"`
	Deposit       decimal.Decimal `json:"deposit"`
	WakeUpTime    int64           `json:"wake_up_time"`
	DurationDays  int             `json:"duration_days"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	StartDay      DayIndex        `json:"start_day"`
	ConfirmedDays []DayIndex      `json:"confirmed_days"`
	DaysCompleted int             `json:"days_completed"`
	Status        Status          `json:"status"`
	FinalizedAt   *time.Time      `json:"finalized_at,omitempty"`
}

// InWindow reports whether day d is one of the challenge's funded days.
func (c *Challenge) InWindow(d DayIndex) bool {
	return inWindow(c.StartDay, c.DurationDays, d)
}

// HasConfirmed reports whether day d has already been confirmed.
func (c *Challenge) HasConfirmed(d DayIndex) bool {
	return containsDay(c.ConfirmedDays, d)
}

// Participant is one slot of a social challenge.
type Participant struct {
	Identity      Identity   `json:"identity"`
	ConfirmedDays []DayIndex `json:"confirmed_days"`
	DaysCompleted int        `json:"days_completed"`
	Outcome       Status     `json:"outcome"`
}

// HasConfirmed reports whether day d has already been confirmed for this slot.
func (p *Participant) HasConfirmed(d DayIndex) bool {
	return containsDay(p.ConfirmedDays, d)
}

// SocialChallenge pools deposits from several participants who each succeed
// or fail on their own attendance. It has no overall pass/fail status; once
// Settled every participant carries a terminal Outcome.
type SocialChallenge struct {
	ID                    int64           `json:"id"`
	Creator               Identity        `json:"creator"`
	DepositPerParticipant decimal.Decimal `json:"deposit_per_participant"`
	TotalPool             decimal.Decimal `json:"total_pool"`
	WakeUpTime            int64           `json:"wake_up_time"`
	DurationDays          int             `json:"duration_days"`
	StartTime             time.Time       `json:"start_time"`
	EndTime               time.Time       `json:"end_time"`
	StartDay              DayIndex        `json:"start_day"`
	Participants          []Participant   `json:"participants"`
	Settled               bool            `json:"settled"`
	SettledAt             *time.Time      `json:"settled_at,omitempty"`
}

// InWindow reports whether day d is one of the challenge's funded days.
func (s *SocialChallenge) InWindow(d DayIndex) bool {
	return inWindow(s.StartDay, s.DurationDays, d)
}

// Participant returns the slot for id, or nil if id is not a participant.
func (s *SocialChallenge) Participant(id Identity) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Identity == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// LedgerEntry holds per-identity running totals. Every counter is monotonic.
type LedgerEntry struct {
	Identity             Identity        `json:"identity"`
	TotalDeposited       decimal.Decimal `json:"total_deposited"`
	TotalReturned        decimal.Decimal `json:"total_returned"`
	TotalBurned          decimal.Decimal `json:"total_burned"`
	SuccessfulChallenges int64           `json:"successful_challenges"`
	FailedChallenges     int64           `json:"failed_challenges"`
}

// NewLedgerEntry returns an all-zero entry for id.
func NewLedgerEntry(id Identity) LedgerEntry {
	return LedgerEntry{
		Identity:       id,
		TotalDeposited: decimal.Zero,
		TotalReturned:  decimal.Zero,
		TotalBurned:    decimal.Zero,
	}
}

// LedgerDelta is an increment applied to one LedgerEntry.
type LedgerDelta struct {
	Deposited  decimal.Decimal
	Returned   decimal.Decimal
	Burned     decimal.Decimal
	Successful int64
	Failed     int64
}

// Apply adds the delta to e.
func (e *LedgerEntry) Apply(d LedgerDelta) {
	e.TotalDeposited = e.TotalDeposited.Add(d.Deposited)
	e.TotalReturned = e.TotalReturned.Add(d.Returned)
	e.TotalBurned = e.TotalBurned.Add(d.Burned)
	e.SuccessfulChallenges += d.Successful
	e.FailedChallenges += d.Failed
}

// Equal reports whether two entries carry identical totals.
func (e LedgerEntry) Equal(o LedgerEntry) bool {
	return e.Identity == o.Identity &&
		e.TotalDeposited.Equal(o.TotalDeposited) &&
		e.TotalReturned.Equal(o.TotalReturned) &&
		e.TotalBurned.Equal(o.TotalBurned) &&
		e.SuccessfulChallenges == o.SuccessfulChallenges &&
		e.FailedChallenges == o.FailedChallenges
}

// TransferKind distinguishes the two ways a deposit leaves custody.
type TransferKind string

const (
	TransferReturn TransferKind = "RETURN"
	TransferBurn   TransferKind = "BURN"
)

// Transfer is a journal record of one settlement payout or burn.
type Transfer struct {
	ReceiptID   string          `json:"receipt_id"`
	Kind        TransferKind    `json:"kind"`
	Mode        Mode            `json:"mode"`
	ChallengeID int64           `json:"challenge_id"`
	Party       Identity        `json:"party"`
	Amount      decimal.Decimal `json:"amount"`
	At          time.Time       `json:"at"`
}

// Mode distinguishes personal from social challenges. The two kinds have
// separate id spaces.
type Mode string

const (
	ModePersonal Mode = "personal"
	ModeSocial   Mode = "social"
)

func inWindow(start DayIndex, duration int, d DayIndex) bool {
	return d >= start && d < start+DayIndex(duration)
}

func containsDay(days []DayIndex, d DayIndex) bool {
	for _, c := range days {
		if c == d {
			return true
		}
	}
	return false
}
