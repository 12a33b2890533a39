// Package marstime converts Earth UTC instants into Mars clock time:
// Mars Sol Date, Coordinated Mars Time (MTC), and local mean/true solar
// time for an arbitrary east longitude.
//
// The pipeline follows the Mars24 algorithm of Allison & McEwen (2000),
// "A post-Pathfinder evaluation of areocentric solar coordinates":
// UTC → Julian Date → Terrestrial Time → Mars orbital position →
// equation of time → clock reading. Every stage is a pure function; the
// package holds no state and is safe for concurrent use.
package marstime

import (
	"errors"
	"math"
	"time"
)

const (
	// jdUnixEpoch is the Julian Date of 1970-01-01 00:00:00 UTC.
	jdUnixEpoch = 2440587.5

	secondsPerDay = 86400.0

	// DeltaTTSeconds is TT−UTC: the fixed 32.184 s TT−TAI offset plus the
	// 37 leap seconds accumulated through 2017-01-01. There is no live
	// leap-second table; this constant must be bumped by hand when IERS
	// announces a new leap second.
	DeltaTTSeconds = 69.184

	// jdJ2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00:00 TT).
	jdJ2000 = 2451545.0
)

// ErrInvalidTimestamp reports an input that cannot be interpreted as an
// absolute UTC instant.
var ErrInvalidTimestamp = errors.New("marstime: invalid timestamp")

// JulianDates converts an absolute instant to Julian Date in both the UT
// and TT flavors. A time.Time is unambiguous by construction, so the only
// rejected input is the zero value; callers parsing text must enforce an
// explicit timezone before this point (RFC3339 does).
//
// JD(TT) = JD(UT) + DeltaTTSeconds/86400. The two flavors must not be
// mixed: all orbital formulas downstream take TT.
func JulianDates(t time.Time) (jdUT, jdTT float64, err error) {
	if t.IsZero() {
		return 0, 0, ErrInvalidTimestamp
	}
	sec := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	jdUT = jdUnixEpoch + sec/secondsPerDay
	jdTT = jdUT + DeltaTTSeconds/secondsPerDay
	return jdUT, jdTT, nil
}

// daysSinceJ2000 returns elapsed TT days since the J2000 epoch.
// Negative for pre-epoch instants; the formulas remain valid there.
func daysSinceJ2000(jdTT float64) float64 {
	return jdTT - jdJ2000
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }

func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }
