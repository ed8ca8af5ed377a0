package mmm

import (
	"fmt"
	"math"
)

// Branch selects one of the two solutions of a multi revolution transfer.
type Branch uint8

const (
	// BranchLeft is the solution with x below the minimum time point.
	BranchLeft Branch = iota + 1
	// BranchRight is the solution with x above the minimum time point.
	BranchRight
)

func (b Branch) String() string {
	switch b {
	case BranchLeft:
		return "left"
	case BranchRight:
		return "right"
	default:
		panic(fmt.Errorf("unknown branch %d", b))
	}
}

// LambertOptions parametrizes the Lambert solver.
type LambertOptions struct {
	Revolutions   int  // complete revolutions before arrival
	Retrograde    bool // clockwise motion seen from +Z
	Branch        Branch
	MaxIterations int
	AbsTol        float64
	RelTol        float64
}

// DefaultLambertOptions returns a direct prograde transfer with the usual tolerances.
func DefaultLambertOptions() LambertOptions {
	return LambertOptions{Revolutions: 0, Branch: BranchLeft, MaxIterations: 35, AbsTol: 1e-5, RelTol: 1e-7}
}

// LambertSolution is the solution of one Lambert problem.
type LambertSolution struct {
	V1         Vector3 // departure velocity
	V2         Vector3 // arrival velocity
	X          float64 // converged free parameter
	Iterations int
}

const (
	battinThreshold   = 0.01
	lagrangeThreshold = 0.2
	halleyMaxIter     = 12
	halleyTol         = 1e-13
)

// lambertGeometry holds the non-dimensional transfer geometry.
type lambertGeometry struct {
	r1, r2   float64
	c, s     float64
	λ        float64
	ir1, ir2 Vector3 // radial unit vectors
	it1, it2 Vector3 // tangential unit vectors
}

func newLambertGeometry(μ float64, r1, r2 Vector3, retrograde bool) (lambertGeometry, error) {
	var g lambertGeometry
	if μ <= 0 || math.IsNaN(μ) {
		return g, fmt.Errorf("%w: μ=%f", ErrInvalidInput, μ)
	}
	if !r1.IsFinite() || !r2.IsFinite() {
		return g, fmt.Errorf("%w: non finite position", ErrInvalidInput)
	}
	var err error
	if g.ir1, err = r1.Unit(); err != nil {
		return g, fmt.Errorf("%w: r1 %s", ErrGeometry, err)
	}
	if g.ir2, err = r2.Unit(); err != nil {
		return g, fmt.Errorf("%w: r2 %s", ErrGeometry, err)
	}
	g.r1, g.r2 = r1.Norm(), r2.Norm()
	g.c = r2.Sub(r1).Norm()
	if g.c <= 1e-12*math.Max(g.r1, g.r2) {
		return g, fmt.Errorf("%w: coincident positions", ErrGeometry)
	}
	g.s = (g.c + g.r1 + g.r2) / 2
	h := g.ir1.Cross(g.ir2)
	ih, err := h.Unit()
	if err != nil || h.Norm() < 1e-12 {
		return g, fmt.Errorf("%w: collinear positions, transfer plane undefined", ErrGeometry)
	}
	λ2 := 1 - g.c/g.s
	g.λ = math.Sqrt(math.Max(λ2, 0))
	if ih.Z < 0 {
		// Transfer angle larger than π.
		g.λ = -g.λ
		g.it1 = g.ir1.Cross(ih)
		g.it2 = g.ir2.Cross(ih)
	} else {
		g.it1 = ih.Cross(g.ir1)
		g.it2 = ih.Cross(g.ir2)
	}
	if retrograde {
		g.λ = -g.λ
		g.it1, g.it2 = g.it1.Neg(), g.it2.Neg()
	}
	if math.Abs(g.λ) >= 1 {
		return g, fmt.Errorf("%w: |λ|=%f >= 1", ErrGeometry, math.Abs(g.λ))
	}
	return g, nil
}

// timeScale converts a time of flight in seconds to the non-dimensional T.
func (g lambertGeometry) timeScale(μ float64) float64 {
	return math.Sqrt(2 * μ / (g.s * g.s * g.s))
}

// Lambert solves Lambert's problem with Izzo's method: it returns the velocities
// connecting r1 to r2 in tof seconds around a central body of gravitational
// parameter μ (km^3/s^2).
// Returned errors wrap ErrInvalidInput, ErrGeometry, ErrInfeasibleTime or ErrConvergence.
func Lambert(μ float64, r1, r2 Vector3, tof float64, opts LambertOptions) (LambertSolution, error) {
	var sol LambertSolution
	if tof <= 0 || math.IsNaN(tof) || math.IsInf(tof, 0) {
		return sol, fmt.Errorf("%w: time of flight %f", ErrInvalidInput, tof)
	}
	if opts.Revolutions < 0 {
		return sol, fmt.Errorf("%w: %d revolutions", ErrInvalidInput, opts.Revolutions)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultLambertOptions().MaxIterations
	}
	g, err := newLambertGeometry(μ, r1, r2, opts.Retrograde)
	if err != nil {
		return sol, err
	}
	λ := g.λ
	T := g.timeScale(μ) * tof
	N := opts.Revolutions

	var x0 float64
	if N == 0 {
		x0 = zeroRevGuess(λ, T)
	} else {
		Tmin, _ := minimumT(λ, N)
		if T < Tmin {
			return sol, fmt.Errorf("%w: T=%f below minimum %f for %d revolutions", ErrInfeasibleTime, T, Tmin, N)
		}
		x0 = multiRevGuess(T, N, opts.Branch)
	}

	x, iters, err := householder(λ, T, x0, N, opts)
	if err != nil {
		return sol, err
	}

	// Velocity reconstruction.
	γ := math.Sqrt(μ * g.s / 2)
	ρ := (g.r1 - g.r2) / g.c
	σ := math.Sqrt(1 - ρ*ρ)
	y := math.Sqrt(1 - λ*λ + λ*λ*x*x)
	vr1 := γ * ((λ*y - x) - ρ*(λ*y+x)) / g.r1
	vr2 := -γ * ((λ*y - x) + ρ*(λ*y+x)) / g.r2
	vt := γ * σ * (y + λ*x)
	sol.V1 = g.ir1.Scale(vr1).Add(g.it1.Scale(vt / g.r1))
	sol.V2 = g.ir2.Scale(vr2).Add(g.it2.Scale(vt / g.r2))
	sol.X = x
	sol.Iterations = iters
	if !sol.V1.IsFinite() || !sol.V2.IsFinite() {
		return LambertSolution{}, fmt.Errorf("%w: non finite velocities at x=%f", ErrConvergence, x)
	}
	return sol, nil
}

// MinimumTimeOfFlight returns the shortest time of flight in seconds for which a
// transfer with the given number of revolutions exists. It is zero for direct transfers.
func MinimumTimeOfFlight(μ float64, r1, r2 Vector3, revs int, retrograde bool) (float64, error) {
	if revs < 0 {
		return 0, fmt.Errorf("%w: %d revolutions", ErrInvalidInput, revs)
	}
	g, err := newLambertGeometry(μ, r1, r2, retrograde)
	if err != nil {
		return 0, err
	}
	if revs == 0 {
		return 0, nil
	}
	Tmin, _ := minimumT(g.λ, revs)
	return Tmin / g.timeScale(μ), nil
}

func zeroRevGuess(λ, T float64) float64 {
	T00 := math.Acos(λ) + λ*math.Sqrt(1-λ*λ)
	T1 := 2.0 / 3.0 * (1 - λ*λ*λ)
	switch {
	case T >= T00:
		return -(T - T00) / (T - T00 + 4)
	case T <= T1:
		x0 := T1*(T1-T)/(2.0/5.0*(1-λ*λ*λ*λ*λ)*T) + 1
		if x0 == 1 {
			// dT/dx is singular at exactly x=1.
			x0 += 1e-9
		}
		return x0
	default:
		return math.Pow(T/T00, math.Ln2/math.Log(T1/T00)) - 1
	}
}

func multiRevGuess(T float64, N int, b Branch) float64 {
	n := float64(N)
	var tmp float64
	if b == BranchRight {
		tmp = math.Pow(8*T/(n*math.Pi), 2.0/3.0)
	} else {
		tmp = math.Pow((n*math.Pi+math.Pi)/(8*T), 2.0/3.0)
	}
	return (tmp - 1) / (tmp + 1)
}

// minimumT returns the minimum non-dimensional time of flight for N revolutions
// and the x where it is reached, found by Halley iterations on dT/dx = 0.
func minimumT(λ float64, N int) (float64, float64) {
	T00 := math.Acos(λ) + λ*math.Sqrt(1-λ*λ)
	xOld, xNew := 0.0, 0.0
	Tmin := T00 + float64(N)*math.Pi
	for it := 0; it <= halleyMaxIter; it++ {
		DT, DDT, DDDT := dTdx(λ, xOld, Tmin)
		if DT != 0 {
			xNew = xOld - DT*DDT/(DDT*DDT-DT*DDDT/2)
		}
		if math.Abs(xOld-xNew) < halleyTol {
			break
		}
		Tmin = x2tof(λ, xNew, N)
		xOld = xNew
	}
	return Tmin, xNew
}

// householder refines x with third order Householder iterations until
// |Δx| <= AbsTol + RelTol*|x|.
func householder(λ, T, x0 float64, N int, opts LambertOptions) (float64, int, error) {
	for it := 1; it <= opts.MaxIterations; it++ {
		tof := x2tof(λ, x0, N)
		DT, DDT, DDDT := dTdx(λ, x0, tof)
		δ := tof - T
		DT2 := DT * DT
		xNew := x0 - δ*(DT2-δ*DDT/2)/(DT*(DT2-δ*DDT)+DDDT*δ*δ/6)
		if math.IsNaN(xNew) || math.IsInf(xNew, 0) {
			return 0, it, fmt.Errorf("%w: diverged from x=%f after %d iterations", ErrConvergence, x0, it)
		}
		if math.Abs(xNew-x0) <= opts.AbsTol+opts.RelTol*math.Abs(xNew) {
			return xNew, it, nil
		}
		x0 = xNew
	}
	return 0, opts.MaxIterations, fmt.Errorf("%w: %d iterations exceeded", ErrConvergence, opts.MaxIterations)
}

// dTdx returns the first three derivatives of the time of flight with respect to x.
func dTdx(λ, x, T float64) (DT, DDT, DDDT float64) {
	l2 := λ * λ
	l3 := l2 * λ
	umx2 := 1 - x*x
	y := math.Sqrt(1 - l2*umx2)
	y2 := y * y
	y3 := y2 * y
	DT = 1 / umx2 * (3*T*x - 2 + 2*l3*x/y)
	DDT = 1 / umx2 * (3*T + 5*x*DT + 2*(1-l2)*l3/y3)
	DDDT = 1 / umx2 * (7*x*DDT + 8*DT - 6*(1-l2)*l2*l3*x/y3/y2)
	return
}

// x2tof returns the non-dimensional time of flight for x, switching between the
// Battin series close to the parabola, Lagrange's expression, and Lancaster's.
func x2tof(λ, x float64, N int) float64 {
	dist := math.Abs(x - 1)
	if dist < lagrangeThreshold && dist > battinThreshold {
		return x2tofLagrange(λ, x, N)
	}
	K := λ * λ
	E := x*x - 1
	ρ := math.Abs(E)
	z := math.Sqrt(1 + K*E)
	if dist < battinThreshold {
		η := z - λ*x
		S1 := 0.5 * (1 - λ - x*η)
		Q := 4.0 / 3.0 * hypergeometricF(S1, 1e-11)
		return (η*η*η*Q+4*λ*η)/2 + float64(N)*math.Pi/math.Pow(ρ, 1.5)
	}
	y := math.Sqrt(ρ)
	gg := x*z - λ*E
	var d float64
	if E < 0 {
		d = float64(N)*math.Pi + math.Acos(clamp(gg, -1, 1))
	} else {
		f := y * (z - λ*x)
		d = math.Log(f + gg)
	}
	return (x - λ*z - d/y) / E
}

func x2tofLagrange(λ, x float64, N int) float64 {
	a := 1 / (1 - x*x)
	if a > 0 {
		α := 2 * math.Acos(x)
		β := 2 * math.Asin(math.Sqrt(λ*λ/a))
		if λ < 0 {
			β = -β
		}
		return a * math.Sqrt(a) * ((α - math.Sin(α)) - (β - math.Sin(β)) + 2*math.Pi*float64(N)) / 2
	}
	α := 2 * math.Acosh(x)
	β := 2 * math.Asinh(math.Sqrt(-λ*λ/a))
	if λ < 0 {
		β = -β
	}
	return -a * math.Sqrt(-a) * ((β - math.Sinh(β)) - (α - math.Sinh(α))) / 2
}

// hypergeometricF evaluates the Gauss hypergeometric function 2F1(3, 1, 5/2, z).
func hypergeometricF(z, tol float64) float64 {
	Sj, Cj := 1.0, 1.0
	for j := 0.0; j < 1000; j++ {
		Cj = Cj * (3 + j) * (1 + j) / (2.5 + j) * z / (j + 1)
		Sj += Cj
		if math.Abs(Cj) <= tol {
			break
		}
	}
	return Sj
}
