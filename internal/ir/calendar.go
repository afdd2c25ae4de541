package ir

import (
	"fmt"
	"time"
)

// SecondsPerDay is the length of one challenge day.
const SecondsPerDay = 86400

// DayIndex is a calendar day counted from the Unix epoch, shifted by the
// calendar's boundary. Two instants share a DayIndex iff they fall between
// the same pair of day boundaries, independent of the host time zone.
type DayIndex int64

// Calendar maps instants to DayIndex values.
//
// Boundary moves the start of each day away from midnight UTC: a Boundary of
// 5h starts days at 05:00 UTC (midnight in UTC-5), a Boundary of -5h starts
// them at 19:00 UTC of the previous date (midnight in UTC+5).
type Calendar struct {
	Boundary time.Duration
}

// NewCalendar creates a calendar with the given day boundary offset.
// The offset must lie strictly within one day.
func NewCalendar(boundary time.Duration) (Calendar, error) {
	if boundary <= -24*time.Hour || boundary >= 24*time.Hour {
		return Calendar{}, fmt.Errorf("day boundary %s out of range (-24h, 24h)", boundary)
	}
	return Calendar{Boundary: boundary}, nil
}

// DayOf returns the day index containing t.
func (c Calendar) DayOf(t time.Time) DayIndex {
	secs := t.Unix() - int64(c.Boundary/time.Second)
	return DayIndex(floorDiv(secs, SecondsPerDay))
}

// DayStart returns the first instant (UTC) of day d.
func (c Calendar) DayStart(d DayIndex) time.Time {
	secs := int64(d)*SecondsPerDay + int64(c.Boundary/time.Second)
	return time.Unix(secs, 0).UTC()
}

// Deadline returns the wake-up deadline of day d for a wake-up time given in
// seconds after the day boundary.
func (c Calendar) Deadline(d DayIndex, wakeUpTime int64) time.Time {
	return c.DayStart(d).Add(time.Duration(wakeUpTime) * time.Second)
}

// Date renders the civil date on which day d starts, as seen from the
// calendar's boundary ("2026-10-15").
func (c Calendar) Date(d DayIndex) string {
	return time.Unix(int64(d)*SecondsPerDay, 0).UTC().Format(time.DateOnly)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
