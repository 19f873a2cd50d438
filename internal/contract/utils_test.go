package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"exactly at start", start, true},
		{"exactly at end", end, true},
		{"inside", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"just before start", start.Add(-time.Second), false},
		{"later on the end date", end.Add(time.Second), false},
		{"zero time", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.at, start, end))
		})
	}
}

func TestInWindowNormalizesZones(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	// 2026-01-31 02:00 +0300 is 2026-01-30 23:00 UTC, inside the window
	zone := time.FixedZone("EAT", 3*60*60)
	assert.True(t, InWindow(time.Date(2026, 1, 31, 2, 0, 0, 0, zone), start, end))

	// 2026-01-31 02:00 -0300 is 2026-01-31 05:00 UTC, outside
	zone = time.FixedZone("BRT", -3*60*60)
	assert.False(t, InWindow(time.Date(2026, 1, 31, 2, 0, 0, 0, zone), start, end))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2026-03", MonthKey(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
	// Zone conversion can move the month boundary
	zone := time.FixedZone("X", -2*60*60)
	assert.Equal(t, "2026-04", MonthKey(time.Date(2026, 3, 31, 23, 0, 0, 0, zone)))
}

func TestWeekdayName(t *testing.T) {
	// 2026-03-02 is a Monday
	assert.Equal(t, "Monday", WeekdayName(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
}

func TestHoursBetween(t *testing.T) {
	a := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(90 * time.Minute)
	assert.InDelta(t, 1.5, HoursBetween(a, b), 1e-9)
}

func TestBuildMirrorPath(t *testing.T) {
	assert.Equal(t, "/srv/mirrors/core", BuildMirrorPath("/srv/mirrors/{repo_name}", "core"))
	assert.Equal(t, "/srv/mirrors/core", BuildMirrorPath("/srv/mirrors", "core"))
}
