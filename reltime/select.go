package reltime

import (
	"math"
	"time"
)

// Select picks the display unit and signed value for t relative to now
// (negative = past).
//
// Magnitudes cascade by rounded division: seconds, then minutes (/60),
// hours (/60), days (/24); months are days/30 and years days/365, without
// calendar arithmetic. The largest non-zero magnitude wins; when every
// magnitude is zero the result is (Second, 0).
func Select(t, now time.Time) (Unit, int) {
	// Milliseconds from Unix times, not t.Sub, which saturates past ~292 years.
	seconds := round(float64(t.UnixMilli()-now.UnixMilli()) / 1000)
	minutes := round(seconds / 60)
	hours := round(minutes / 60)
	days := round(hours / 24)
	months := round(days / 30)
	years := round(days / 365)

	magnitudes := [...]float64{years, months, days, hours, minutes, seconds}
	for _, u := range Units {
		if magnitudes[u] != 0 {
			return u, int(magnitudes[u])
		}
	}
	return Second, 0
}

// round rounds half towards positive infinity: 0.5 → 1, -0.5 → 0,
// -1.5 → -1.
func round(x float64) float64 {
	r := math.Floor(x + 0.5)
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}
