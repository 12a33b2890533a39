package marstime

import "math"

// Mars orbital elements at J2000 and their daily rates, per Allison &
// McEwen (2000) equations B-1 and B-2. Degrees per TT day.
const (
	meanAnomalyAtEpoch  = 19.3871
	meanAnomalyRate     = 0.52402073
	fictMeanSunAtEpoch  = 270.3871
	fictMeanSunRate     = 0.524038496
	perturbationDegRate = 0.985626 // degrees of perturber phase per day
)

// perturber is one periodic term of the planetary-perturbation sum (B-3):
// amplitude (degrees), period (years of 365.25/0.985626 days), phase (degrees).
type perturber struct {
	amplitude float64
	period    float64
	phase     float64
}

// perturbers are the seven leading gravitational-perturbation terms on
// Mars's orbit. Amplitudes carry 1e-4 degree precision; do not round.
var perturbers = [7]perturber{
	{0.0071, 2.2353, 49.409},
	{0.0057, 2.7543, 168.173},
	{0.0039, 1.1177, 191.837},
	{0.0037, 15.7866, 21.736},
	{0.0021, 2.1354, 15.704},
	{0.0020, 2.4694, 95.528},
	{0.0018, 32.8493, 49.095},
}

// OrbitalState holds the Mars orbital and solar-position quantities for a
// single elapsed-days value. Angles follow the Mars24 conventions: the
// two primary angles are kept in radians for trig use, the derived
// corrections in degrees.
type OrbitalState struct {
	MeanAnomalyRad       float64 // M, equation B-1
	FictitiousMeanSunRad float64 // alpha_FMS, equation B-2
	PerturbationDeg      float64 // PBS, equation B-3
	EquationOfCenterDeg  float64 // nu − M, equation B-4
	SolarLongitudeDeg    float64 // Ls, equation B-5
}

// Orbit computes the orbital state for elapsed TT days since J2000.
// Pure arithmetic; d may be negative.
func Orbit(d float64) OrbitalState {
	m := radians(meanAnomalyAtEpoch + meanAnomalyRate*d)
	fms := radians(fictMeanSunAtEpoch + fictMeanSunRate*d)

	// Perturbation sum. Order is irrelevant (commutative); keep the
	// published term order for readability.
	var pbs float64
	for _, p := range perturbers {
		pbs += p.amplitude * math.Cos(radians(perturbationDegRate*d/p.period+p.phase))
	}

	ec := (10.691+3.0e-7*d)*math.Sin(m) +
		0.623*math.Sin(2*m) +
		0.050*math.Sin(3*m) +
		0.005*math.Sin(4*m) +
		0.0005*math.Sin(5*m) +
		pbs

	return OrbitalState{
		MeanAnomalyRad:       m,
		FictitiousMeanSunRad: fms,
		PerturbationDeg:      pbs,
		EquationOfCenterDeg:  ec,
		SolarLongitudeDeg:    degrees(fms) + ec,
	}
}
