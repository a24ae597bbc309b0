package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntilPermanent(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"just deleted", t0, 7},
		{"one hour later", t0.Add(time.Hour), 7},
		{"exactly one day", t0.Add(24 * time.Hour), 6},
		{"six days", t0.Add(6 * 24 * time.Hour), 1},
		{"six days one hour", t0.Add(6*24*time.Hour + time.Hour), 1},
		{"window end", t0.Add(RetentionWindow), 0},
		{"past window", t0.Add(RetentionWindow + time.Minute), 0},
		{"long past", t0.Add(30 * 24 * time.Hour), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysUntilPermanent(t0, tc.now))
		})
	}
}

func TestDaysUntilPermanentNeverIncreases(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := DaysUntilPermanent(t0, t0)
	for now := t0; now.Before(t0.Add(9 * 24 * time.Hour)); now = now.Add(37 * time.Minute) {
		got := DaysUntilPermanent(t0, now)
		assert.LessOrEqual(t, got, prev, "at %s", now)
		prev = got
	}
	assert.Equal(t, 0, prev)
}

func TestExpiredBoundary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := PermanentAt(t0)

	assert.False(t, Expired(t0, end.Add(-time.Second)))
	assert.False(t, Expired(t0, end))
	assert.True(t, Expired(t0, end.Add(time.Nanosecond)))
	assert.Equal(t, t0, PurgeCutoff(end))
}

func TestCountdownFor(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	fresh := CountdownFor(t0, t0.Add(time.Hour))
	assert.Equal(t, Countdown{ExpiringSoon: false, DaysUntilPermanent: 7, Restorable: true}, fresh)

	soon := CountdownFor(t0, t0.Add(6*24*time.Hour))
	assert.Equal(t, Countdown{ExpiringSoon: true, DaysUntilPermanent: 1, Restorable: true}, soon)

	twoLeft := CountdownFor(t0, t0.Add(5*24*time.Hour))
	assert.True(t, twoLeft.ExpiringSoon)
	assert.Equal(t, 2, twoLeft.DaysUntilPermanent)

	gone := CountdownFor(t0, t0.Add(8*24*time.Hour))
	assert.Equal(t, Countdown{ExpiringSoon: true, DaysUntilPermanent: 0, Restorable: false}, gone)
}
