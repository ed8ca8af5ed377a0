package mmm

import "math"

// SweptSphere tests a point moving linearly from p0 to p1 against a sphere of the
// provided radius whose center moves linearly from c0 to c1 over the same step.
// It returns the earliest fraction s in [0, 1] of the step at which the point is on
// the sphere. A point already inside the sphere returns s = 0. Without relative
// motion a point outside never hits.
func SweptSphere(p0, p1, c0, c1 Vector3, radius float64) (float64, bool) {
	rel0 := p0.Sub(c0)
	d := p1.Sub(c1).Sub(rel0)
	c := rel0.Norm2() - radius*radius
	if c <= 0 {
		return 0, true
	}
	a := d.Norm2()
	if a < 1e-18 {
		return 0, false
	}
	b := 2 * rel0.Dot(d)
	disc := b*b - 4*a*c
	if disc < 0 {
		// Tangency within rounding still counts as a graze.
		if disc < -1e-12*b*b {
			return 0, false
		}
		disc = 0
	}
	sq := math.Sqrt(disc)
	// Since c > 0 both roots have the same sign; the smallest one is the entry.
	s := (-b - sq) / (2 * a)
	if s < 0 || s > 1 {
		return 0, false
	}
	return s, true
}

// sweepMayHit is a cheap rejection of steps whose relative start point is farther
// than the radius plus the relative displacement.
func sweepMayHit(p0, p1, c0, c1 Vector3, radius float64) bool {
	rel0 := p0.Sub(c0)
	d := p1.Sub(c1).Sub(rel0)
	reach := radius + d.Norm()
	return rel0.Norm2() <= reach*reach
}

// sweep applies the pre-filter, then the exact test.
func sweep(p0, p1, c0, c1 Vector3, radius float64) (float64, bool) {
	if !sweepMayHit(p0, p1, c0, c1, radius) {
		return 0, false
	}
	return SweptSphere(p0, p1, c0, c1, radius)
}
