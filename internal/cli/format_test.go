package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func TestFormatRemaining(t *testing.T) {
	now := time.Date(2026, 10, 15, 6, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want string
	}{
		{"days and hours", now.Add(3*24*time.Hour + 4*time.Hour + 59*time.Minute), "3d 4h"},
		{"hours and minutes", now.Add(2*time.Hour + 5*time.Minute + 30*time.Second), "2h 5m"},
		{"minutes only", now.Add(7 * time.Minute), "7m"},
		{"under a minute", now.Add(30 * time.Second), "0m"},
		{"exactly now", now, "Expired"},
		{"past", now.Add(-time.Hour), "Expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRemaining(now, tt.end))
		})
	}
}

func TestFormatWakeTime(t *testing.T) {
	assert.Equal(t, "00:00", FormatWakeTime(0))
	assert.Equal(t, "07:00", FormatWakeTime(25200))
	assert.Equal(t, "06:30", FormatWakeTime(23400))
	assert.Equal(t, "23:59", FormatWakeTime(86399))
}

func TestParseWakeTime(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"07:00", 25200, false},
		{"6:30", 23400, false},
		{"25200", 25200, false},
		{"0", 0, false},
		{"7am", 0, true},
		{"07:60", 0, true},
		{"-1:00", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWakeTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortIdentity(t *testing.T) {
	assert.Equal(t, "0xalice", ShortIdentity("0xalice"))
	assert.Equal(t, "0x1234...abcd", ShortIdentity(ir.Identity("0x1234567890abcdef1234567890abcdef1234abcd")))
}
