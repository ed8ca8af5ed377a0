package mmm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v Vector3) Vector3 {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(3, v.Slice()))
	return Vec(rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2))
}

// PQW2Inertial converts a vector from the perifocal frame to the inertial frame
// by undoing the argument of periapsis, the inclination and the ascending node
// (all in radians).
func PQW2Inertial(i, ω, Ω float64, v Vector3) Vector3 {
	var m mat.Dense
	m.Mul(R3(-Ω), R1(-i))
	m.Mul(&m, R3(-ω))
	return MxV33(&m, v)
}

// BodyFixedRotation returns the rotation from the inertial frame to the frame of a
// body whose spin axis is tilted by `tilt` about the inertial X axis and which has
// rotated by `spin` about that axis (both in radians).
func BodyFixedRotation(spin, tilt float64) *mat.Dense {
	var m mat.Dense
	m.Mul(R3(spin), R1(tilt))
	return &m
}
