package mmm

import (
	"fmt"
	"math"
)

// Gravity computes softened inverse-square accelerations.
type Gravity struct {
	G         float64 // gravitational constant, possibly scaled
	Softening float64 // ε in km, avoids the singularity at zero separation
}

// DefaultGravity uses the physical constant and a 1 km softening.
var DefaultGravity = Gravity{G: G, Softening: 1}

// Acceleration returns the summed acceleration at a point due to the sources (km/s^2).
func (g Gravity) Acceleration(at Vector3, sources []PointMass) Vector3 {
	var acc Vector3
	ε2 := g.Softening * g.Softening
	for _, src := range sources {
		d := src.Position.Sub(at)
		r2 := d.Norm2() + ε2
		if r2 == 0 {
			continue
		}
		acc = acc.Add(d.Scale(g.G * src.Mass / (r2 * math.Sqrt(r2))))
	}
	return acc
}

// Integrator advances free bodies with explicit Euler steps. Large steps are split
// into equal sub-steps no longer than MaxSubStep. Errors grow with the number of
// steps; this is not an energy conserving scheme.
type Integrator struct {
	Gravity    Gravity
	MaxSubStep float64 // seconds
}

// NewIntegrator returns a new integrator. Panics if the sub-step is not positive.
func NewIntegrator(g Gravity, maxSubStep float64) Integrator {
	if maxSubStep <= 0 {
		panic(fmt.Errorf("max sub-step must be positive, got %f", maxSubStep))
	}
	return Integrator{g, maxSubStep}
}

// SubSteps returns the number of sub-steps used for a step of dt seconds.
func (in Integrator) SubSteps(dt float64) int {
	if dt <= 0 {
		return 0
	}
	return int(math.Ceil(dt/in.MaxSubStep - 1e-9))
}

// Step returns the state of fb after dt seconds starting at the epoch.
// Each sub-step evaluates the field at its own epoch, then updates the velocity
// and, with that velocity, the position.
func (in Integrator) Step(fb FreeBody, epoch, dt float64, field Field) FreeBody {
	n := in.SubSteps(dt)
	if n == 0 {
		return fb
	}
	h := dt / float64(n)
	for k := 0; k < n; k++ {
		acc := in.Gravity.Acceleration(fb.Position, field.SourcesAt(epoch+float64(k)*h))
		fb.Velocity = fb.Velocity.Add(acc.Scale(h))
		fb.Position = fb.Position.Add(fb.Velocity.Scale(h))
	}
	return fb
}

// Propagate advances fb by duration seconds with steps of `step` seconds (the live
// simulation step), finishing with a partial step if needed.
func (in Integrator) Propagate(fb FreeBody, epoch, duration, step float64, field Field) FreeBody {
	if step <= 0 {
		panic(fmt.Errorf("propagation step must be positive, got %f", step))
	}
	n := int(math.Floor(duration/step + 1e-9))
	for k := 0; k < n; k++ {
		fb = in.Step(fb, epoch+float64(k)*step, step, field)
	}
	if rem := duration - float64(n)*step; rem > 1e-9 {
		fb = in.Step(fb, epoch+float64(n)*step, rem, field)
	}
	return fb
}
