package marstime

import "math"

// EquationOfTimeHours derives the Mars equation of time (C-1): the signed
// gap between mean and true solar time, combining the eccentricity
// contribution (the equation of center) with the axial-tilt harmonics of
// the solar longitude. Result is in hours; |EOT| stays under 0.86 h for
// any input.
func EquationOfTimeHours(lsDeg, ecDeg float64) float64 {
	ls := radians(lsDeg)
	eotDeg := 2.861*math.Sin(2*ls) -
		0.071*math.Sin(4*ls) +
		0.002*math.Sin(6*ls) -
		ecDeg
	return eotDeg / 15.0 // 360 degrees = 24 hours
}
