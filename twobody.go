package mmm

import (
	"fmt"
	"math"

	"github.com/n3roxis/mmm/integrator"
)

// TwoBody is a Keplerian reference propagation around a point mass at the origin,
// integrated with RK4. It is used to verify the Lambert solutions.
type TwoBody struct {
	μ     float64
	state []float64
	steps uint64
}

// Func is the two body ODE.
func (tb *TwoBody) Func(t float64, s []float64) []float64 {
	r := math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
	k := -tb.μ / (r * r * r)
	return []float64{s[3], s[4], s[5], k * s[0], k * s[1], k * s[2]}
}

// GetState implements the integrator.Integrable interface.
func (tb *TwoBody) GetState() []float64 {
	return tb.state
}

// SetState implements the integrator.Integrable interface.
func (tb *TwoBody) SetState(i uint64, s []float64) {
	tb.state = s
}

// Stop implements the integrator.Integrable interface.
func (tb *TwoBody) Stop(i uint64) bool {
	return i >= tb.steps
}

// PropagateTwoBody returns the position and velocity after tof seconds under μ,
// using at most `step` seconds per RK4 step.
func PropagateTwoBody(μ float64, r, v Vector3, tof, step float64) (Vector3, Vector3, error) {
	if μ <= 0 || tof < 0 || step <= 0 {
		return Vector3{}, Vector3{}, fmt.Errorf("%w: μ=%f tof=%f step=%f", ErrInvalidInput, μ, tof, step)
	}
	if r.IsZero() {
		return Vector3{}, Vector3{}, fmt.Errorf("%w: zero radius", ErrGeometry)
	}
	if tof == 0 {
		return r, v, nil
	}
	n := uint64(math.Ceil(tof / step))
	tb := &TwoBody{μ: μ, state: []float64{r.X, r.Y, r.Z, v.X, v.Y, v.Z}, steps: n}
	if _, _, err := integrator.NewRK4(0, tof/float64(n), tb).Solve(); err != nil {
		return Vector3{}, Vector3{}, err
	}
	return VecFromSlice(tb.state[:3]), VecFromSlice(tb.state[3:]), nil
}
