package mmm

import "fmt"

// FreeBody is a body moved by the integrator (meteors, impactors).
type FreeBody struct {
	ID           string
	Position     Vector3 // km
	Velocity     Vector3 // km/s
	Mass         float64 // kg
	Radius       float64 // km
	FlightBudget float64 // seconds, zero means unlimited
}

// ApplyImpulse returns a copy of the body with dv added to its velocity.
func (fb FreeBody) ApplyImpulse(dv Vector3) FreeBody {
	fb.Velocity = fb.Velocity.Add(dv)
	return fb
}

// Expired returns whether the flight budget is exhausted after `elapsed` seconds.
func (fb FreeBody) Expired(elapsed float64) bool {
	return fb.FlightBudget > 0 && elapsed >= fb.FlightBudget
}

// String implements the Stringer interface.
func (fb FreeBody) String() string {
	return fmt.Sprintf("%s r=%s v=%s", fb.ID, fb.Position, fb.Velocity)
}

// VelocityTracker estimates the velocity of a body which only exposes its
// positions, such as a platform carried by a rotating planet.
type VelocityTracker struct {
	epochs    [2]float64
	positions [2]Vector3
	count     int
}

// Record stores a new position. Records for an epoch not strictly after the
// last one replace it.
func (vt *VelocityTracker) Record(epoch float64, pos Vector3) {
	if vt.count > 0 && epoch <= vt.epochs[1] {
		vt.epochs[1], vt.positions[1] = epoch, pos
		return
	}
	vt.epochs[0], vt.positions[0] = vt.epochs[1], vt.positions[1]
	vt.epochs[1], vt.positions[1] = epoch, pos
	if vt.count < 2 {
		vt.count++
	}
}

// Velocity returns the backward finite difference of the last two records.
// The second return is false until two records are available.
func (vt *VelocityTracker) Velocity() (Vector3, bool) {
	if vt.count < 2 {
		return Vector3{}, false
	}
	dt := vt.epochs[1] - vt.epochs[0]
	if dt <= 0 {
		return Vector3{}, false
	}
	return vt.positions[1].Sub(vt.positions[0]).Scale(1 / dt), true
}

// Position returns the last recorded position.
func (vt *VelocityTracker) Position() Vector3 {
	return vt.positions[1]
}
