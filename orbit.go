package mmm

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/unit"
)

const (
	secondsPerDay = 86400.0
)

// OrbitalElements defines an elliptical orbit relative to its parent.
// Angles are in degrees except Phase, the mean anomaly at epoch zero, in radians.
type OrbitalElements struct {
	SemiMajorAxis          float64 // AU
	Eccentricity           float64
	PeriodDays             float64
	Inclination            float64
	LongitudeAscendingNode float64
	ArgumentOfPeriapsis    float64
	Phase                  float64
}

// Validate returns an error if the elements do not describe an ellipse.
func (o OrbitalElements) Validate() error {
	if o.Eccentricity < 0 || o.Eccentricity >= 1 {
		return fmt.Errorf("%w: eccentricity %f not in [0, 1)", ErrInvalidInput, o.Eccentricity)
	}
	if o.SemiMajorAxis <= 0 {
		return fmt.Errorf("%w: semi major axis %f <= 0", ErrInvalidInput, o.SemiMajorAxis)
	}
	if o.PeriodDays <= 0 {
		return fmt.Errorf("%w: period %f <= 0", ErrInvalidInput, o.PeriodDays)
	}
	return nil
}

// PeriodSeconds returns the orbital period in seconds.
func (o OrbitalElements) PeriodSeconds() float64 {
	return o.PeriodDays * secondsPerDay
}

// MeanMotion returns the mean motion in radians per second.
func (o OrbitalElements) MeanMotion() float64 {
	return twoPi / o.PeriodSeconds()
}

// MeanAnomaly returns the mean anomaly at the provided epoch (seconds).
func (o OrbitalElements) MeanAnomaly(epoch float64) float64 {
	return normalizeAngle(o.Phase + o.MeanMotion()*epoch)
}

// Position returns the position in km relative to the parent at the provided epoch.
func (o OrbitalElements) Position(epoch float64, solver KeplerSolver) Vector3 {
	E := solver.EccentricAnomaly(o.MeanAnomaly(epoch), o.Eccentricity)
	a := o.SemiMajorAxis * AU
	sinE, cosE := math.Sincos(E)
	pqw := Vec(a*(cosE-o.Eccentricity), a*math.Sqrt(1-o.Eccentricity*o.Eccentricity)*sinE, 0)
	return PQW2Inertial(Deg2rad(o.Inclination), Deg2rad(o.ArgumentOfPeriapsis), Deg2rad(o.LongitudeAscendingNode), pqw)
}

// KeplerSolver solves Kepler's equation E - e sin(E) = M.
//
// The Newton iteration runs a fixed number of times. This is accurate for
// near-circular bodies only; above MaxEccentricity the solver switches to a
// bisection method that holds for any e < 1. A positive Tolerance allows the
// Newton loop to exit early once the correction is smaller than it.
type KeplerSolver struct {
	Iterations      int
	Tolerance       float64
	MaxEccentricity float64
}

// DefaultKeplerSolver is five Newton iterations, valid up to e = 0.3.
var DefaultKeplerSolver = KeplerSolver{Iterations: 5, Tolerance: 0, MaxEccentricity: 0.3}

// EccentricAnomaly returns E in [0, 2π) for the mean anomaly M (radians).
func (s KeplerSolver) EccentricAnomaly(M, e float64) float64 {
	M = normalizeAngle(M)
	if e == 0 {
		return M
	}
	if e > s.MaxEccentricity {
		return normalizeAngle(kepler.Kepler3(e, unit.Angle(M)).Rad())
	}
	E := M
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < s.Iterations; i++ {
		δ := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= δ
		if s.Tolerance > 0 && math.Abs(δ) < s.Tolerance {
			break
		}
	}
	return normalizeAngle(E)
}
