package marstime

import (
	"math"
	"time"
)

const (
	// earthDaysPerSol is the ratio of a mean Mars solar day to an Earth day.
	earthDaysPerSol = 1.0274912517

	// jdMTCEpoch is the Julian Date (TT) the MTC formula (C-2) is anchored
	// to. Distinct from jdJ2000; the Mars Sol Date formula uses jdJ2000.
	jdMTCEpoch = 2451549.5

	// msdBase aligns the sol count with the Mars Sol Date convention of
	// Allison & McEwen: sol 0 falls on 1873-12-29.
	msdBase = 44796.0 - 0.0009626

	// SolSeconds is the length of a mean Mars solar day in SI seconds.
	SolSeconds = 88775.24409
)

// ClockReading is the full Mars clock state for one (instant, longitude)
// pair. All hour values are in [0, 24); EOTHours is signed and small.
type ClockReading struct {
	MarsSolDate float64 `json:"msd"`
	SolNumber   int64   `json:"sol"`
	MTCHours    float64 `json:"mtc_hours"`
	LMSTHours   float64 `json:"lmst_hours"`
	EOTHours    float64 `json:"eot_hours"`
	LTSTHours   float64 `json:"ltst_hours"`
}

// Wrap24 maps x into [0, 24) with a true modulo (negative inputs wrap to
// the positive range, unlike Go's truncating remainder).
func Wrap24(x float64) float64 {
	x = math.Mod(x, 24.0)
	if x < 0 {
		x += 24.0
	}
	return x
}

// NormalizeLongitude maps an east longitude in degrees into [0, 360).
// Longitude is cyclic, so out-of-range values are folded, never rejected.
func NormalizeLongitude(lonEastDeg float64) float64 {
	lon := math.Mod(lonEastDeg, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon
}

// Clock derives the Mars clock reading for a JD(TT) and an east longitude.
//
// MTC (C-2) is mean solar time at the Airy-0 meridian. Local mean solar
// time adds lon/15 hours: Mars longitude is counted east-positive, and
// moving east shifts the local clock later, the opposite sense of Earth's
// west-positive convention. The equation of time then corrects mean to
// true (sundial) time.
func Clock(jdTT, lonEastDeg float64) ClockReading {
	d := daysSinceJ2000(jdTT)
	orbit := Orbit(d)
	eot := EquationOfTimeHours(orbit.SolarLongitudeDeg, orbit.EquationOfCenterDeg)

	// Unwrapped sol count; the fractional part ×24 reproduces MTC.
	msd := d/earthDaysPerSol + msdBase

	mtc := Wrap24(24.0 * ((jdTT-jdMTCEpoch)/earthDaysPerSol + msdBase))
	lmst := Wrap24(mtc + NormalizeLongitude(lonEastDeg)/15.0)
	ltst := Wrap24(lmst + eot)

	return ClockReading{
		MarsSolDate: msd,
		SolNumber:   int64(math.Floor(msd)),
		MTCHours:    mtc,
		LMSTHours:   lmst,
		EOTHours:    eot,
		LTSTHours:   ltst,
	}
}

// Convert runs the whole pipeline for an absolute instant and an east
// longitude. The only error is ErrInvalidTimestamp for the zero instant.
// Latitude plays no role in the conversion; callers that carry one do so
// for display only.
func Convert(t time.Time, lonEastDeg float64) (ClockReading, error) {
	_, jdTT, err := JulianDates(t)
	if err != nil {
		return ClockReading{}, err
	}
	return Clock(jdTT, lonEastDeg), nil
}
