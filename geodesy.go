package mmm

import (
	"fmt"
	"math"
)

// BodyFixed returns the inertial vector v expressed in the rotating frame of the body
// at the epoch: first the axial tilt about X, then the spin about the pole.
func (b MassiveBody) BodyFixed(v Vector3, epoch float64) Vector3 {
	return MxV33(BodyFixedRotation(b.SpinAngle(epoch), Deg2rad(b.AxialTilt)), v)
}

// SurfaceCoordinates returns the longitude in (-180, 180] and the latitude in
// [-90, 90] (degrees) of a point given relative to the center of the body.
func SurfaceCoordinates(body MassiveBody, rel Vector3, epoch float64) (lon, lat float64, err error) {
	if rel.IsZero() || !rel.IsFinite() {
		return 0, 0, fmt.Errorf("%w: surface point %s", ErrZeroVector, rel)
	}
	_, θ, φ := Cartesian2Spherical(body.BodyFixed(rel, epoch))
	lat = 90 - Rad2deg(θ)
	lon = wrap180(Rad2deg(φ))
	return lon, lat, nil
}

// ImpactSolution is where and how a body hits the surface of another. An invalid
// solution is one whose trajectory no longer intersects the surface; it is kept
// so that callers can report the change.
type ImpactSolution struct {
	BodyID    string
	Longitude float64 // degrees
	Latitude  float64 // degrees
	Angle     float64 // degrees between the incoming direction and the local normal
	Speed     float64 // km/s
	Mass      float64 // kg
	Epoch     float64
	Valid     bool
	Final     bool    // set once the impact actually happened
	Point     Vector3 // inertial, relative to the body center
	Direction Vector3 // unit relative velocity

	body        MassiveBody
	impactParam Vector3 // point projected on the plane normal to Direction
}

// String implements the Stringer interface.
func (s ImpactSolution) String() string {
	state := "valid"
	if !s.Valid {
		state = "invalid"
	}
	if s.Final {
		state += ",final"
	}
	return fmt.Sprintf("%s impact (%s) lon=%.3f lat=%.3f angle=%.2f v=%.3f km/s t=%.1f", s.BodyID, state, s.Longitude, s.Latitude, s.Angle, s.Speed, s.Epoch)
}

// ResolveImpact returns the absolute conversion of an impact at rel (relative to the
// center of the body) with a relative velocity relVel at the epoch.
func ResolveImpact(body MassiveBody, rel, relVel Vector3, mass, epoch float64) ImpactSolution {
	sol := ImpactSolution{BodyID: body.ID, Speed: relVel.Norm(), Mass: mass, Epoch: epoch, Point: rel, body: body}
	dir, err := relVel.Unit()
	if err != nil {
		return sol
	}
	n, err := rel.Unit()
	if err != nil {
		return sol
	}
	sol.Direction = dir
	sol.impactParam = rel.Sub(dir.Scale(rel.Dot(dir)))
	sol.Angle = Rad2deg(math.Acos(clamp(-dir.Dot(n), -1, 1)))
	sol.Longitude, sol.Latitude, _ = SurfaceCoordinates(body, rel, epoch)
	sol.Valid = true
	return sol
}

// radius returns the radius used to check that the impact stays on the surface.
func (s ImpactSolution) radius() float64 {
	if s.body.Radius > 0 {
		return s.body.Radius
	}
	return s.Point.Norm()
}

// Refresh returns the solution updated for a shift of the trajectory (inertial, km).
// The shift is projected on the plane normal to the impactor direction and added to
// the registered impact parameter. When the result is farther than the radius from
// the center the solution is invalidated.
func Refresh(sol ImpactSolution, shift Vector3) ImpactSolution {
	if sol.Direction.IsZero() {
		return sol
	}
	e1, e2 := tangentBasis(sol.Direction)
	b := sol.impactParam.Add(e1.Scale(shift.Dot(e1))).Add(e2.Scale(shift.Dot(e2)))
	R := sol.radius()
	bn := b.Norm()
	if bn > R {
		sol.Valid = false
		return sol
	}
	sol.Point = b.Sub(sol.Direction.Scale(math.Sqrt(R*R - bn*bn)))
	sol.Angle = Rad2deg(math.Asin(clamp(bn/R, 0, 1)))
	sol.Longitude, sol.Latitude, _ = SurfaceCoordinates(sol.body, sol.Point, sol.Epoch)
	sol.Valid = true
	return sol
}

// tangentBasis returns two unit vectors orthogonal to the unit vector d and to each other.
func tangentBasis(d Vector3) (Vector3, Vector3) {
	ref := Vec(1, 0, 0)
	if math.Abs(d.X) > 0.9 {
		ref = Vec(0, 1, 0)
	}
	e1, _ := ref.Sub(d.Scale(ref.Dot(d))).Unit()
	return e1, d.Cross(e1)
}
