package mmm

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// vectorsEqual returns whether both vectors are equal within the absolute tolerance.
func vectorsEqual(a, b Vector3, tol float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, tol) && scalar.EqualWithinAbs(a.Y, b.Y, tol) && scalar.EqualWithinAbs(a.Z, b.Z, tol)
}

// anglesEqual returns whether two angles in radians are equal modulo 2π.
func anglesEqual(a, b float64) (bool, error) {
	if scalar.EqualWithinAbs(normalizeAngle(a), normalizeAngle(b), 1e-10) {
		return true, nil
	}
	if scalar.EqualWithinAbs(math.Abs(normalizeAngle(a)-normalizeAngle(b)), twoPi, 1e-10) {
		return true, nil
	}
	return false, fmt.Errorf("%f != %f", a, b)
}

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("code did not panic")
		}
	}()
	f()
}
