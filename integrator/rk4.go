package integrator

// Integrable is a state propagated by RK4, e.g. a two-body orbit.
// The state is stored by the implementation after each step.
type Integrable interface {
	GetState() []float64                   // current state
	SetState(i uint64, s []float64)        // state after step i
	Stop(i uint64) bool                    // whether step i is the last one
	Func(t float64, s []float64) []float64 // derivative of s at t
}

// RK4 defines a classical fourth order Runge-Kutta integrator with a fixed step.
type RK4 struct {
	X0         float64    // The initial x0.
	StepSize   float64    // The step size.
	Integrator Integrable // What is to be integrated.
}

// NewRK4 returns a new RK4 integrator instance.
func NewRK4(x0 float64, stepSize float64, inte Integrable) *RK4 {
	if stepSize <= 0 {
		panic("config StepSize must be positive")
	}
	if inte == nil {
		panic("config Integrator may not be nil")
	}
	return &RK4{X0: x0, StepSize: stepSize, Integrator: inte}
}

// Step returns the state after one step of size h from (x, state) without
// touching the integrable's stored state.
func Step(f func(float64, []float64) []float64, x, h float64, state []float64) []float64 {
	const (
		half     = 1 / 2.0
		oneSixth = 1 / 6.0
		oneThird = 1 / 3.0
	)
	n := len(state)
	k1 := make([]float64, n)
	// k2, k3 and k4 are used as buffers AND result variables.
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	tState := make([]float64, n)
	newState := make([]float64, n)

	for i, y := range f(x, state) {
		k1[i] = y * h
		tState[i] = state[i] + k1[i]*half
	}
	for i, y := range f(x+h*half, tState) {
		k2[i] = y * h
		tState[i] = state[i] + k2[i]*half
	}
	for i, y := range f(x+h*half, tState) {
		k3[i] = y * h
		tState[i] = state[i] + k3[i]
	}
	for i, y := range f(x+h, tState) {
		k4[i] = y * h
		newState[i] = state[i] + oneSixth*(k1[i]+k4[i]) + oneThird*(k2[i]+k3[i])
	}
	return newState
}

// Solve solves the configured RK4.
// Returns the number of iterations performed and the last X_i, or an error.
func (r *RK4) Solve() (uint64, float64, error) {
	iterNum := uint64(0)
	xi := r.X0
	for !r.Integrator.Stop(iterNum) {
		newState := Step(r.Integrator.Func, xi, r.StepSize, r.Integrator.GetState())
		r.Integrator.SetState(iterNum, newState)
		xi += r.StepSize
		iterNum++ // Don't forget to increment the number of iterations.
	}
	return iterNum, xi, nil
}
