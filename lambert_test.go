package mmm

import (
	"errors"
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

const μEarth = 398600.4418

func lambertEqual(got, exp Vector3) bool {
	// 1e-2 absolute or 1e-3 relative, per component.
	for _, c := range [][2]float64{{got.X, exp.X}, {got.Y, exp.Y}, {got.Z, exp.Z}} {
		if !scalar.EqualWithinAbsOrRel(c[0], c[1], 1e-2, 1e-3) {
			return false
		}
	}
	return true
}

func TestLambert(t *testing.T) {
	// From Vallado 4th edition, page 497
	Ri := Vec(15945.34, 0, 0)
	Rf := Vec(12214.83899, 10249.46731, 0)
	ViExp := Vec(2.058913, 2.915965, 0)
	VfExp := Vec(-3.451565, 0.910315, 0)
	sol, err := Lambert(μEarth, Ri, Rf, 76.0*60, DefaultLambertOptions())
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !lambertEqual(sol.V1, ViExp) {
		t.Fatalf("incorrect Vi computed\nGot %s\nExp %s", sol.V1, ViExp)
	}
	if !lambertEqual(sol.V2, VfExp) {
		t.Fatalf("incorrect Vf computed\nGot %s\nExp %s", sol.V2, VfExp)
	}
	if sol.Iterations < 1 || sol.Iterations > DefaultLambertOptions().MaxIterations {
		t.Fatalf("unexpected iteration count %d", sol.Iterations)
	}

	// Long way around
	opts := DefaultLambertOptions()
	opts.Retrograde = true
	ViExp = Vec(-3.811158, -2.003854, 0)
	VfExp = Vec(4.207569, 0.914724, 0)
	sol, err = Lambert(μEarth, Ri, Rf, 76.0*60, opts)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !lambertEqual(sol.V1, ViExp) {
		t.Fatalf("[retrograde] incorrect Vi computed\nGot %s\nExp %s", sol.V1, ViExp)
	}
	if !lambertEqual(sol.V2, VfExp) {
		t.Fatalf("[retrograde] incorrect Vf computed\nGot %s\nExp %s", sol.V2, VfExp)
	}
}

func TestLambertRoundTrip(t *testing.T) {
	cases := []struct {
		r1, r2 Vector3
		tof    float64
		opts   LambertOptions
	}{
		{Vec(15945.34, 0, 0), Vec(12214.83899, 10249.46731, 0), 4560, DefaultLambertOptions()},
		{Vec(7000, 0, 0), Vec(-3000, 9000, 2500), 3 * 3600, DefaultLambertOptions()},
		{Vec(8000, 1000, -500), Vec(-9000, -6000, 1000), 1800, DefaultLambertOptions()},
		{Vec(7000, 0, 0), Vec(0, 7500, 300), 20 * 3600, LambertOptions{Revolutions: 1, Branch: BranchLeft, MaxIterations: 35, AbsTol: 1e-10, RelTol: 1e-10}},
		{Vec(7000, 0, 0), Vec(0, 7500, 300), 20 * 3600, LambertOptions{Revolutions: 1, Branch: BranchRight, MaxIterations: 35, AbsTol: 1e-10, RelTol: 1e-10}},
	}
	for i, tc := range cases {
		sol, err := Lambert(μEarth, tc.r1, tc.r2, tc.tof, tc.opts)
		if err != nil {
			t.Fatalf("case %d: %s", i, err)
		}
		rEnd, vEnd, err := PropagateTwoBody(μEarth, tc.r1, sol.V1, tc.tof, 1)
		if err != nil {
			t.Fatalf("case %d: %s", i, err)
		}
		if miss := rEnd.Sub(tc.r2).Norm(); miss > 1 {
			t.Fatalf("case %d: arrived %f km away from r2", i, miss)
		}
		if dv := vEnd.Sub(sol.V2).Norm(); dv > 1e-3 {
			t.Fatalf("case %d: arrival velocity off by %f km/s", i, dv)
		}
	}
}

func TestLambertMultiRevBranches(t *testing.T) {
	r1, r2 := Vec(7000, 0, 0), Vec(0, 7500, 300)
	opts := DefaultLambertOptions()
	opts.Revolutions = 1
	left, err := Lambert(μEarth, r1, r2, 20*3600, opts)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	opts.Branch = BranchRight
	right, err := Lambert(μEarth, r1, r2, 20*3600, opts)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if vectorsEqual(left.V1, right.V1, 1e-3) {
		t.Fatal("both branches returned the same solution")
	}
	if left.X >= right.X {
		t.Fatalf("left branch x=%f should be below the right branch x=%f", left.X, right.X)
	}
}

func TestLambertInfeasible(t *testing.T) {
	r1, r2 := Vec(7000, 0, 0), Vec(0, 7500, 300)
	tmin, err := MinimumTimeOfFlight(μEarth, r1, r2, 1, false)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	// One revolution takes at least about one orbital period.
	period := 2 * math.Pi * math.Sqrt(math.Pow(7000, 3)/μEarth)
	if tmin < period || tmin > 3*period {
		t.Fatalf("minimum time of flight %f s for a period of %f s", tmin, period)
	}
	opts := DefaultLambertOptions()
	opts.Revolutions = 1
	if _, err := Lambert(μEarth, r1, r2, 0.9*tmin, opts); !errors.Is(err, ErrInfeasibleTime) {
		t.Fatalf("expected ErrInfeasibleTime, got %v", err)
	}
	if _, err := Lambert(μEarth, r1, r2, 1.2*tmin, opts); err != nil {
		t.Fatalf("expected a solution above the minimum, got %s", err)
	}
	if direct, _ := MinimumTimeOfFlight(μEarth, r1, r2, 0, false); direct != 0 {
		t.Fatalf("direct transfers have no minimum, got %f", direct)
	}
}

func TestLambertErrors(t *testing.T) {
	Ri := Vec(15945.34, 0, 0)
	Rf := Vec(12214.83899, 10249.46731, 0)
	opts := DefaultLambertOptions()
	checks := []struct {
		name   string
		μ      float64
		r1, r2 Vector3
		tof    float64
		exp    error
	}{
		{"negative μ", -1, Ri, Rf, 4560, ErrInvalidInput},
		{"null tof", μEarth, Ri, Rf, 0, ErrInvalidInput},
		{"NaN tof", μEarth, Ri, Rf, math.NaN(), ErrInvalidInput},
		{"NaN position", μEarth, Vec(math.NaN(), 0, 0), Rf, 4560, ErrInvalidInput},
		{"zero r1", μEarth, Vector3{}, Rf, 4560, ErrGeometry},
		{"coincident", μEarth, Ri, Ri, 4560, ErrGeometry},
		{"collinear", μEarth, Ri, Ri.Scale(-2), 4560, ErrGeometry},
	}
	for _, c := range checks {
		if _, err := Lambert(c.μ, c.r1, c.r2, c.tof, opts); !errors.Is(err, c.exp) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.exp, err)
		}
	}
	opts.Revolutions = -1
	if _, err := Lambert(μEarth, Ri, Rf, 4560, opts); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative revolutions: %v", err)
	}
	// One iteration cannot meet a tight tolerance.
	tight := LambertOptions{MaxIterations: 1, AbsTol: 1e-15, RelTol: 0}
	if _, err := Lambert(μEarth, Ri, Rf, 4560, tight); !errors.Is(err, ErrConvergence) {
		t.Fatalf("expected ErrConvergence, got %v", err)
	}
}

func TestLambertConcurrent(t *testing.T) {
	Ri := Vec(15945.34, 0, 0)
	Rf := Vec(12214.83899, 10249.46731, 0)
	exp, err := Lambert(μEarth, Ri, Rf, 4560, DefaultLambertOptions())
	if err != nil {
		t.Fatalf("err %s", err)
	}
	var wg sync.WaitGroup
	results := make([]LambertSolution, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Lambert(μEarth, Ri, Rf, 4560, DefaultLambertOptions())
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		if r != exp {
			t.Fatalf("solve %d differs: %+v != %+v", i, r, exp)
		}
	}
}

func TestBranchString(t *testing.T) {
	if BranchLeft.String() != "left" || BranchRight.String() != "right" {
		t.Fatal("unexpected branch names")
	}
	assertPanic(t, func() {
		_ = Branch(0).String()
	})
}
