package mmm

import (
	"fmt"
	"math"
	"strings"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8
	// G is the gravitational constant in km^3/(kg s^2).
	G = 6.67430e-20
)

// MassiveBody defines a gravitating body whose position is a pure function of the epoch.
// A body without Elements sits at its parent's position (or at the origin without parent).
type MassiveBody struct {
	ID             string
	Mass           float64          // kg
	Radius         float64          // km
	Elements       *OrbitalElements // orbit around Parent
	Parent         string           // ID of the parent body, empty for the root
	Wobble         *OrbitalElements // secondary small orbit offset (e.g. about a barycenter)
	SiderealPeriod float64          // seconds, zero for a non rotating body
	AxialTilt      float64          // degrees
	SpinPhase      float64          // radians at epoch zero
}

// GM returns μ for the provided gravitational constant.
func (b MassiveBody) GM(g float64) float64 {
	return g * b.Mass
}

// LocalPosition returns the position relative to the parent (orbit + wobble) in km.
func (b MassiveBody) LocalPosition(epoch float64, solver KeplerSolver) Vector3 {
	var pos Vector3
	if b.Elements != nil {
		pos = b.Elements.Position(epoch, solver)
	}
	if b.Wobble != nil {
		pos = pos.Add(b.Wobble.Position(epoch, solver))
	}
	return pos
}

// SpinAngle returns the rotation angle of the body about its spin axis at the epoch, in [0, 2π).
func (b MassiveBody) SpinAngle(epoch float64) float64 {
	if b.SiderealPeriod == 0 {
		return normalizeAngle(b.SpinPhase)
	}
	return normalizeAngle(b.SpinPhase + twoPi*math.Mod(epoch/b.SiderealPeriod, 1))
}

// String implements the Stringer interface.
func (b MassiveBody) String() string {
	return b.ID + " body"
}

// BodyFromString returns the body of the default table from its name.
func BodyFromString(name string) (MassiveBody, error) {
	for _, b := range DefaultBodies() {
		if strings.EqualFold(b.ID, name) {
			return b, nil
		}
	}
	return MassiveBody{}, fmt.Errorf("%w: '%s'", ErrUnknownBody, name)
}

// DefaultBodies returns a copy of the static body table.
func DefaultBodies() []MassiveBody {
	earthElts := *Earth.Elements
	earthWobble := *Earth.Wobble
	moonElts := *Moon.Elements
	marsElts := *Mars.Elements
	earth, moon, mars := Earth, Moon, Mars
	earth.Elements, earth.Wobble = &earthElts, &earthWobble
	moon.Elements = &moonElts
	mars.Elements = &marsElts
	return []MassiveBody{Sun, earth, moon, mars}
}

/* Definitions */

// Sun is our closest star.
var Sun = MassiveBody{ID: "Sun", Mass: 1.98847e30, Radius: 695700, SiderealPeriod: 25.38 * secondsPerDay, AxialTilt: 7.25}

// Earth is home. Its wobble is the motion about the Earth-Moon barycenter.
var Earth = MassiveBody{
	ID: "Earth", Mass: 5.9722e24, Radius: 6371.0, Parent: "Sun",
	Elements:       &OrbitalElements{1.00000011, 0.01671022, 365.256363, 0.00005, 348.73936, 114.20783, 6.2400600},
	Wobble:         &OrbitalElements{4671 / AU, 0.0549, 27.321661, 5.145, 125.08, 318.15, 135.27*deg2rad + math.Pi},
	SiderealPeriod: 86164.0905, AxialTilt: 23.4392811,
}

// Moon orbits the Earth.
var Moon = MassiveBody{
	ID: "Moon", Mass: 7.342e22, Radius: 1737.4, Parent: "Earth",
	Elements:       &OrbitalElements{384400 / AU, 0.0549, 27.321661, 5.145, 125.08, 318.15, 135.27 * deg2rad},
	SiderealPeriod: 27.321661 * secondsPerDay, AxialTilt: 6.68,
}

// Mars is the vacation place.
var Mars = MassiveBody{
	ID: "Mars", Mass: 6.4171e23, Radius: 3389.5, Parent: "Sun",
	Elements:       &OrbitalElements{1.52366231, 0.09341233, 686.98, 1.85061, 49.57854, 286.4623, 19.41248 * deg2rad},
	SiderealPeriod: 88642.66, AxialTilt: 25.19,
}
