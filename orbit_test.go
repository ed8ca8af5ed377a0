package mmm

import (
	"errors"
	"math"
	"testing"

	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestOrbitPeriodicity(t *testing.T) {
	solver := KeplerSolver{Iterations: 50, Tolerance: 1e-14, MaxEccentricity: 0.3}
	for _, e := range []float64{0, 0.01, 0.1, 0.29, 0.5, 0.9} {
		o := OrbitalElements{SemiMajorAxis: 1.3, Eccentricity: e, PeriodDays: 400, Inclination: 12, LongitudeAscendingNode: 40, ArgumentOfPeriapsis: 75, Phase: 1}
		for _, epoch := range []float64{0, 1e5, 3.3e6, -2e7} {
			r0 := o.Position(epoch, solver)
			r1 := o.Position(epoch+o.PeriodSeconds(), solver)
			// Relative to the orbit size
			if !vectorsEqual(r0, r1, 1e-9*o.SemiMajorAxis*AU) {
				t.Fatalf("e=%f epoch=%f: %s != %s", e, epoch, r0, r1)
			}
		}
	}
}

func TestOrbitGeometry(t *testing.T) {
	o := OrbitalElements{SemiMajorAxis: 1, Eccentricity: 0.2, PeriodDays: 365, Phase: 0}
	// At periapsis
	if r := o.Position(0, DefaultKeplerSolver); !vectorsEqual(r, Vec(0.8*AU, 0, 0), 1e-3) {
		t.Fatalf("periapsis: %s", r)
	}
	// Apoapsis half a period later
	if r := o.Position(o.PeriodSeconds()/2, DefaultKeplerSolver); !vectorsEqual(r, Vec(-1.2*AU, 0, 0), 1) {
		t.Fatalf("apoapsis: %s", r)
	}
	// Inclined circular orbit stays in its plane
	inc := OrbitalElements{SemiMajorAxis: 0.5, Eccentricity: 0, PeriodDays: 100, Inclination: 90, LongitudeAscendingNode: 0}
	for epoch := 0.0; epoch < inc.PeriodSeconds(); epoch += inc.PeriodSeconds() / 13 {
		r := inc.Position(epoch, DefaultKeplerSolver)
		if !scalar.EqualWithinAbs(r.Y, 0, 1e-3) {
			t.Fatalf("polar orbit left the XZ plane: %s", r)
		}
		if !scalar.EqualWithinRel(r.Norm(), 0.5*AU, 1e-12) {
			t.Fatalf("circular radius changed: %f", r.Norm())
		}
	}
}

func TestKeplerSolver(t *testing.T) {
	for _, e := range []float64{0.0167, 0.0934, 0.2} {
		for M := 0.0; M < twoPi; M += 0.1 {
			E := DefaultKeplerSolver.EccentricAnomaly(M, e)
			if !scalar.EqualWithinAbs(E-e*math.Sin(E), M, 1e-10) {
				t.Fatalf("e=%f M=%f: E=%f does not solve Kepler's equation", e, M, E)
			}
		}
	}
	// The fixed iteration count stops early, even if not converged.
	oneIter := KeplerSolver{Iterations: 1, MaxEccentricity: 1}
	E := oneIter.EccentricAnomaly(1, 0.25)
	if exp := 1 - (1-0.25*math.Sin(1)-1)/(1-0.25*math.Cos(1)); !scalar.EqualWithinAbs(E, exp, 1e-15) {
		t.Fatalf("one iteration: %f != %f", E, exp)
	}
	// Tolerance allows an early exit.
	tol := KeplerSolver{Iterations: 100, Tolerance: 1e-3, MaxEccentricity: 1}
	if E := tol.EccentricAnomaly(2, 0.1); !scalar.EqualWithinAbs(E-0.1*math.Sin(E), 2, 1e-5) {
		t.Fatalf("tolerance: E=%f", E)
	}
}

func TestKeplerSolverHighEccentricity(t *testing.T) {
	// Above the valid range the solver relies on meeus.
	for _, e := range []float64{0.5, 0.8, 0.97} {
		for _, M := range []float64{0.05, 1, 3, 5.5} {
			E := DefaultKeplerSolver.EccentricAnomaly(M, e)
			exp := normalizeAngle(kepler.Kepler3(e, unit.Angle(M)).Rad())
			if !scalar.EqualWithinAbs(E, exp, 1e-12) {
				t.Fatalf("e=%f M=%f: %f != %f", e, M, E, exp)
			}
			if !scalar.EqualWithinAbs(E-e*math.Sin(E), M, 1e-6) {
				t.Fatalf("e=%f M=%f: E=%f does not solve Kepler's equation", e, M, E)
			}
		}
	}
}

func TestOrbitValidate(t *testing.T) {
	valid := OrbitalElements{SemiMajorAxis: 1, Eccentricity: 0.5, PeriodDays: 10}
	if err := valid.Validate(); err != nil {
		t.Fatalf("err: %s", err)
	}
	for _, o := range []OrbitalElements{
		{SemiMajorAxis: 1, Eccentricity: 1, PeriodDays: 10},
		{SemiMajorAxis: 1, Eccentricity: -0.1, PeriodDays: 10},
		{SemiMajorAxis: 0, Eccentricity: 0.1, PeriodDays: 10},
		{SemiMajorAxis: 1, Eccentricity: 0.1, PeriodDays: 0},
	} {
		if err := o.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v should be invalid, got %v", o, err)
		}
	}
}
