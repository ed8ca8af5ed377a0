package mmm

import (
	"fmt"
	"math"
	"strings"
)

// Thruster defines the engine of an impactor.
type Thruster interface {
	// Name of the engine.
	Name() string
	// Isp returns the specific impulse in seconds.
	Isp() float64
}

// ExhaustVelocity returns the effective exhaust velocity in km/s.
func ExhaustVelocity(t Thruster) float64 {
	return t.Isp() * g0
}

// PropellantMass returns the propellant needed by a vehicle of mass dry (kg) to
// change its velocity by dv (km/s), from the rocket equation.
func PropellantMass(t Thruster, dry, dv float64) float64 {
	return dry * (math.Exp(math.Abs(dv)/ExhaustVelocity(t)) - 1)
}

/* Available Thrusters */

// RL10 is the Aerojet Rocketdyne hydrolox upper stage engine.
type RL10 struct{}

// Name implements the Thruster interface.
func (t *RL10) Name() string {
	return "RL10"
}

// Isp implements the Thruster interface.
func (t *RL10) Isp() float64 {
	return 465.5
}

// Merlin1DVac is the SpaceX kerolox vacuum engine.
type Merlin1DVac struct{}

// Name implements the Thruster interface.
func (t *Merlin1DVac) Name() string {
	return "Merlin1DVac"
}

// Isp implements the Thruster interface.
func (t *Merlin1DVac) Isp() float64 {
	return 348
}

// HERMeS is based on the NASA & Rocketdyne 12.5kW demo
type HERMeS struct{}

// Name implements the Thruster interface.
func (t *HERMeS) Name() string {
	return "HERMeS"
}

// Isp implements the Thruster interface.
func (t *HERMeS) Isp() float64 {
	return 2960
}

// GenericThruster is a thruster defined only by its specific impulse.
type GenericThruster struct {
	name string
	isp  float64
}

// Name implements the Thruster interface.
func (t *GenericThruster) Name() string {
	return t.name
}

// Isp implements the Thruster interface.
func (t *GenericThruster) Isp() float64 {
	return t.isp
}

// NewGenericThruster returns a generic thruster. Panics if the Isp is not positive.
func NewGenericThruster(name string, isp float64) *GenericThruster {
	if isp <= 0 {
		panic(fmt.Errorf("specific impulse must be positive, got %f", isp))
	}
	return &GenericThruster{name, isp}
}

// ThrusterFromString returns a preset thruster from its name.
func ThrusterFromString(name string) (Thruster, error) {
	switch strings.ToLower(name) {
	case "rl10":
		return new(RL10), nil
	case "merlin1dvac", "merlin":
		return new(Merlin1DVac), nil
	case "hermes":
		return new(HERMeS), nil
	default:
		return nil, fmt.Errorf("%w: unknown thruster '%s'", ErrInvalidInput, name)
	}
}
