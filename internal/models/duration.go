package models

import "math"

// Duration is a video length in hours and minutes. Minutes are kept
// normalized into [0,59]; excess carries into hours.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// NewDuration builds a normalized Duration from hours and minutes.
func NewDuration(hours, minutes int) Duration {
	d := Duration{Hours: hours, Minutes: minutes}
	d.Normalize()
	return d
}

// DurationFromMinutes converts a total-minute count into {hours, minutes}.
func DurationFromMinutes(totalMinutes int) Duration {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	return Duration{Hours: totalMinutes / 60, Minutes: totalMinutes % 60}
}

// Normalize carries excess minutes into hours and clamps negatives to zero.
func (d *Duration) Normalize() {
	if d.Minutes < 0 {
		d.Minutes = 0
	}
	if d.Hours < 0 {
		d.Hours = 0
	}
	d.Hours += d.Minutes / 60
	d.Minutes %= 60
}

// TotalMinutes returns hours*60 + minutes.
func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

// HoursDecimal converts a minute count to decimal hours rounded to 2 places
// (125 minutes -> 2.08).
func HoursDecimal(totalMinutes int) float64 {
	return math.Round(float64(totalMinutes)/60*100) / 100
}
