package mmm

import (
	"errors"
	"math"
	"testing"
)

func TestPropagateTwoBodyCircular(t *testing.T) {
	μ := 398600.4418
	r := Vec(7000, 0, 0)
	v := Vec(0, math.Sqrt(μ/7000), 0)
	period := 2 * math.Pi * math.Sqrt(7000*7000*7000/μ)
	rEnd, vEnd, err := PropagateTwoBody(μ, r, v, period, 10)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if !vectorsEqual(rEnd, r, 1e-2) || !vectorsEqual(vEnd, v, 1e-5) {
		t.Fatalf("circular orbit did not close: %s %s", rEnd, vEnd)
	}
	// Half a period later, on the other side.
	rHalf, _, _ := PropagateTwoBody(μ, r, v, period/2, 10)
	if !vectorsEqual(rHalf, r.Neg(), 1e-2) {
		t.Fatalf("half period position %s", rHalf)
	}
}

func TestPropagateTwoBodyErrors(t *testing.T) {
	r, v := Vec(7000, 0, 0), Vec(0, 7.5, 0)
	if rEnd, vEnd, err := PropagateTwoBody(1, r, v, 0, 1); err != nil || rEnd != r || vEnd != v {
		t.Fatal("null duration should return the initial state")
	}
	for _, tc := range []struct {
		μ, tof, step float64
	}{{0, 10, 1}, {1, -10, 1}, {1, 10, 0}} {
		if _, _, err := PropagateTwoBody(tc.μ, r, v, tc.tof, tc.step); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected an invalid input for %+v", tc)
		}
	}
	if _, _, err := PropagateTwoBody(1, Vector3{}, v, 10, 1); !errors.Is(err, ErrGeometry) {
		t.Fatal("expected a geometry error at the origin")
	}
}
