package mmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vector3 is an immutable 3D vector. All operations return new values.
type Vector3 r3.Vec

// Vec returns the vector built from its three components.
func Vec(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// VecFromSlice returns the vector from a 3x1 slice.
func VecFromSlice(s []float64) Vector3 {
	if len(s) != 3 {
		panic(fmt.Errorf("expected a slice of length 3, got %d", len(s)))
	}
	return Vector3{X: s[0], Y: s[1], Z: s[2]}
}

// Add returns v+w.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3(r3.Add(r3.Vec(v), r3.Vec(w)))
}

// Sub returns v-w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3(r3.Sub(r3.Vec(v), r3.Vec(w)))
}

// Scale returns f*v.
func (v Vector3) Scale(f float64) Vector3 {
	return Vector3(r3.Scale(f, r3.Vec(v)))
}

// Neg returns -v.
func (v Vector3) Neg() Vector3 {
	return v.Scale(-1)
}

// Dot returns the inner product.
func (v Vector3) Dot(w Vector3) float64 {
	return r3.Dot(r3.Vec(v), r3.Vec(w))
}

// Cross returns v x w.
func (v Vector3) Cross(w Vector3) Vector3 {
	return Vector3(r3.Cross(r3.Vec(v), r3.Vec(w)))
}

// Norm returns the Euclidean length.
func (v Vector3) Norm() float64 {
	return r3.Norm(r3.Vec(v))
}

// Norm2 returns the squared length.
func (v Vector3) Norm2() float64 {
	return r3.Norm2(r3.Vec(v))
}

// Unit returns the normalized vector. A zero-length or non-finite vector
// returns ErrZeroVector instead of propagating NaNs.
func (v Vector3) Unit() (Vector3, error) {
	n := v.Norm()
	if !v.IsFinite() || scalar.EqualWithinAbs(n, 0, 1e-12) {
		return Vector3{}, fmt.Errorf("%w: %s", ErrZeroVector, v)
	}
	return v.Scale(1 / n), nil
}

// Lerp returns v + s*(w-v).
func (v Vector3) Lerp(w Vector3, s float64) Vector3 {
	return v.Add(w.Sub(v).Scale(s))
}

// IsFinite returns false if any component is NaN or infinite.
func (v Vector3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// IsZero returns whether all components are exactly zero.
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Slice returns the components as a new 3x1 slice (for mat interop).
func (v Vector3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// String implements the Stringer interface.
func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
