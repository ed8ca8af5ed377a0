package mmm

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	deg2rad = math.Pi / 180
	twoPi   = 2 * math.Pi
	// g0 is the standard gravity in km/s^2 (for Isp to exhaust velocity).
	g0 = 9.80665e-3
)

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if scalar.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// normalizeAngle wraps an angle in radians to [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// wrap180 wraps an angle in degrees to (-180, 180].
func wrap180(a float64) float64 {
	a = math.Mod(a, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// clamp returns x bounded to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Cartesian2Spherical returns the radius, colatitude θ and azimuth φ (radians)
// of the provided vector. The zero vector returns zeros.
func Cartesian2Spherical(a Vector3) (r, θ, φ float64) {
	r = a.Norm()
	if r == 0 {
		return 0, 0, 0
	}
	θ = math.Acos(clamp(a.Z/r, -1, 1))
	φ = math.Atan2(a.Y, a.X)
	return
}

// Deg2rad converts degrees to radians in [0, 2π).
func Deg2rad(a float64) float64 {
	return normalizeAngle(a * deg2rad)
}

// Rad2deg converts radians to degrees in [0, 360).
func Rad2deg(a float64) float64 {
	return normalizeAngle(a) / deg2rad
}
