package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateSerial(t *testing.T) {
	// Day zero of the serial scheme.
	assert.Equal(t, int64(0), DateSerial(time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), DateSerial(time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)))
	// Time of day never affects the serial.
	noon := DateSerial(time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC))
	midnight := DateSerial(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, midnight, noon)
}

func TestNextAPN(t *testing.T) {
	today := int64(46275)

	t.Run("first registration of the day", func(t *testing.T) {
		got := NextAPN(0, today)
		assert.Equal(t, "46275.10", got.String())
	})

	t.Run("subsequent registrations advance by a hundredth", func(t *testing.T) {
		first := NextAPN(0, today)
		second := NextAPN(first, today)
		third := NextAPN(second, today)
		assert.Equal(t, "46275.11", second.String())
		assert.Equal(t, "46275.12", third.String())
	})

	t.Run("stale maximum from a prior day resets to today's base", func(t *testing.T) {
		yesterdayMax := NewAPN(today-1, 37)
		got := NextAPN(yesterdayMax, today)
		assert.Equal(t, NewAPN(today, 10), got)
	})

	t.Run("always strictly greater than current max", func(t *testing.T) {
		max := NewAPN(today, 99)
		got := NextAPN(max, today)
		assert.True(t, max.Less(got))
	})
}

func TestAPNOrdering(t *testing.T) {
	earlier := NewAPN(46274, 10)
	later := NewAPN(46275, 10)
	assert.True(t, earlier.Less(later))
	assert.False(t, later.Less(earlier))

	sameDayFirst := NewAPN(46275, 10)
	sameDaySecond := NewAPN(46275, 11)
	assert.True(t, sameDayFirst.Less(sameDaySecond))
}

func TestAPNScan(t *testing.T) {
	cases := []struct {
		name string
		src  interface{}
		want APN
	}{
		{"numeric bytes", []byte("46275.10"), NewAPN(46275, 10)},
		{"string", "46275.11", NewAPN(46275, 11)},
		{"whole number", []byte("46275"), NewAPN(46275, 0)},
		{"single fractional digit pads", "46275.1", NewAPN(46275, 10)},
		{"float", float64(46275.12), NewAPN(46275, 12)},
		{"nil", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var a APN
			require.NoError(t, a.Scan(tc.src))
			assert.Equal(t, tc.want, a)
		})
	}

	var a APN
	assert.Error(t, a.Scan([]byte("not-a-number")))
	assert.Error(t, a.Scan(true))
}

func TestAPNValueRoundTrip(t *testing.T) {
	orig := NewAPN(46275, 10)
	v, err := orig.Value()
	require.NoError(t, err)

	var back APN
	require.NoError(t, back.Scan(v))
	assert.Equal(t, orig, back)
}
