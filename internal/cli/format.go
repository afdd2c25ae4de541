package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/store"
)

// FormatRemaining renders the time left until end: "3d 4h", "2h 5m", "7m",
// or "Expired" once end has passed.
func FormatRemaining(now, end time.Time) string {
	secs := int64(end.Sub(now) / time.Second)
	if secs <= 0 {
		return "Expired"
	}
	days := secs / 86400
	hours := secs % 86400 / 3600
	minutes := secs % 3600 / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatWakeTime renders seconds after the day boundary as HH:MM.
func FormatWakeTime(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/3600, seconds%3600/60)
}

// ParseWakeTime accepts HH:MM or a plain number of seconds. Range checks
// are left to the engine.
func ParseWakeTime(s string) (int64, error) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("wake-up time %q: want HH:MM or seconds", s)
		}
		return n, nil
	}
	hours, err := strconv.ParseInt(h, 10, 64)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("wake-up time %q: bad hour", s)
	}
	minutes, err := strconv.ParseInt(m, 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("wake-up time %q: bad minute", s)
	}
	return hours*3600 + minutes*60, nil
}

// ShortIdentity abbreviates long identities to 0x1234...abcd for tables.
func ShortIdentity(id ir.Identity) string {
	s := string(id)
	if len(s) <= 13 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

func writeChallenge(w io.Writer, c *ir.Challenge, now time.Time) {
	fmt.Fprintf(w, "Challenge #%d (%s)\n", c.ID, c.Status)
	fmt.Fprintf(w, "  Owner:     %s\n", c.Owner)
	fmt.Fprintf(w, "  Deposit:   %s\n", ir.FormatAmount(c.Deposit))
	fmt.Fprintf(w, "  Wake-up:   %s\n", FormatWakeTime(c.WakeUpTime))
	fmt.Fprintf(w, "  Progress:  %d/%d days\n", c.DaysCompleted, c.DurationDays)
	fmt.Fprintf(w, "  Ends:      %s (%s)\n", c.EndTime.Format(time.RFC3339), FormatRemaining(now, c.EndTime))
	if c.FinalizedAt != nil {
		fmt.Fprintf(w, "  Finalized: %s\n", c.FinalizedAt.Format(time.RFC3339))
	}
}

func writeSocial(w io.Writer, s *ir.SocialChallenge, now time.Time) {
	state := "ACTIVE"
	if s.Settled {
		state = "SETTLED"
	}
	fmt.Fprintf(w, "Social challenge #%d (%s)\n", s.ID, state)
	fmt.Fprintf(w, "  Creator:   %s\n", s.Creator)
	fmt.Fprintf(w, "  Deposit:   %s each, pool %s\n", ir.FormatAmount(s.DepositPerParticipant), ir.FormatAmount(s.TotalPool))
	fmt.Fprintf(w, "  Wake-up:   %s\n", FormatWakeTime(s.WakeUpTime))
	fmt.Fprintf(w, "  Ends:      %s (%s)\n", s.EndTime.Format(time.RFC3339), FormatRemaining(now, s.EndTime))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PARTICIPANT\tDAYS\tOUTCOME")
	for _, p := range s.Participants {
		fmt.Fprintf(tw, "  %s\t%d/%d\t%s\n", p.Identity, p.DaysCompleted, s.DurationDays, p.Outcome)
	}
	tw.Flush()
}

func writeLedger(w io.Writer, e ir.LedgerEntry) {
	fmt.Fprintf(w, "Profile %s\n", e.Identity)
	fmt.Fprintf(w, "  Deposited:  %s\n", ir.FormatAmount(e.TotalDeposited))
	fmt.Fprintf(w, "  Returned:   %s\n", ir.FormatAmount(e.TotalReturned))
	fmt.Fprintf(w, "  Burned:     %s\n", ir.FormatAmount(e.TotalBurned))
	fmt.Fprintf(w, "  Successful: %d\n", e.SuccessfulChallenges)
	fmt.Fprintf(w, "  Failed:     %d\n", e.FailedChallenges)
}

func writeStats(w io.Writer, s engine.Stats) {
	fmt.Fprintf(w, "Stats %s\n", s.Identity)
	fmt.Fprintf(w, "  Challenges:   %d (%d active, %d completed, %d failed)\n",
		s.TotalChallenges, s.ActiveChallenges, s.CompletedChallenges, s.FailedChallenges)
	fmt.Fprintf(w, "  Wake-ups:     %d\n", s.TotalWakeUps)
	fmt.Fprintf(w, "  Deposited:    %s\n", ir.FormatAmount(s.TotalDeposited))
	fmt.Fprintf(w, "  Success rate: %s%%\n", s.SuccessRate)
}

func writeChallengeList(w io.Writer, personal []ir.Challenge, social []ir.SocialChallenge, now time.Time) {
	if len(personal) == 0 && len(social) == 0 {
		fmt.Fprintln(w, "No challenges.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tID\tSTATUS\tDEPOSIT\tDAYS\tWAKE\tREMAINING")
	for _, c := range personal {
		fmt.Fprintf(tw, "personal\t%d\t%s\t%s\t%d/%d\t%s\t%s\n",
			c.ID, c.Status, ir.FormatAmount(c.Deposit), c.DaysCompleted, c.DurationDays,
			FormatWakeTime(c.WakeUpTime), FormatRemaining(now, c.EndTime))
	}
	for _, s := range social {
		status := "ACTIVE"
		if s.Settled {
			status = "SETTLED"
		}
		fmt.Fprintf(tw, "social\t%d\t%s\t%s\t%d ppl\t%s\t%s\n",
			s.ID, status, ir.FormatAmount(s.DepositPerParticipant), len(s.Participants),
			FormatWakeTime(s.WakeUpTime), FormatRemaining(now, s.EndTime))
	}
	tw.Flush()
}

func writeEvents(w io.Writer, events []ir.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tAT\tKIND\tCHALLENGE\tACTOR\tID")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq, e.At.Format(time.RFC3339), e.Kind, challengeRef(e),
			ShortIdentity(e.Actor), shortHash(e.ID))
	}
	tw.Flush()
}

func writeAudit(w io.Writer, r store.AuditReport) {
	fmt.Fprintf(w, "Audited %d challenges, %d social challenges, %d transfers, %d events\n",
		r.Challenges, r.SocialChallenges, r.Transfers, r.Events)
	if r.Clean() {
		fmt.Fprintln(w, "\u2713 Ledger, journal and event log are consistent")
		return
	}
	for _, d := range r.LedgerDrift {
		fmt.Fprintf(w, "\u2717 ledger drift for %s\n", d.Identity)
	}
	for _, p := range r.Problems {
		fmt.Fprintf(w, "\u2717 %s\n", p)
	}
}

// challengeRef is "-" for events not tied to a challenge.
func challengeRef(e ir.Event) string {
	if e.Mode == "" {
		return "-"
	}
	return fmt.Sprintf("%s #%d", e.Mode, e.ChallengeID)
}

func shortHash(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
