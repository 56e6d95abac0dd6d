package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDurationNormalizes(t *testing.T) {
	cases := []struct {
		hours, minutes int
		want           Duration
	}{
		{0, 0, Duration{0, 0}},
		{1, 30, Duration{1, 30}},
		{0, 59, Duration{0, 59}},
		{0, 60, Duration{1, 0}},
		{0, 125, Duration{2, 5}},
		{2, 75, Duration{3, 15}},
		{-1, -5, Duration{0, 0}},
	}
	for _, tc := range cases {
		got := NewDuration(tc.hours, tc.minutes)
		assert.Equal(t, tc.want, got, "NewDuration(%d, %d)", tc.hours, tc.minutes)
		assert.Equal(t, got.Hours*60+got.Minutes, got.TotalMinutes())
	}
}

func TestDurationFromMinutesRoundTrip(t *testing.T) {
	for _, m := range []int{0, 1, 59, 60, 61, 105, 125, 210, 1439} {
		d := DurationFromMinutes(m)
		assert.Equal(t, m, d.TotalMinutes(), "minutes=%d", m)
		assert.GreaterOrEqual(t, d.Minutes, 0)
		assert.Less(t, d.Minutes, 60)
	}
}

func TestHoursDecimal(t *testing.T) {
	assert.Equal(t, 0.0, HoursDecimal(0))
	assert.Equal(t, 1.75, HoursDecimal(105))
	assert.Equal(t, 2.08, HoursDecimal(125)) // rounded, not truncated
	assert.Equal(t, 3.5, HoursDecimal(210))
	assert.Equal(t, 0.02, HoursDecimal(1))
}
