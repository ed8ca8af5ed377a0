package mmm

import (
	"errors"
	"fmt"

	kitlog "github.com/go-kit/kit/log"
)

// Platform is the launch site of impactors: its current position and the
// velocity observed from its recent positions.
type Platform struct {
	ID       string
	Position Vector3
	Velocity Vector3
}

// PlatformFromTracker returns the platform state from a velocity tracker.
func PlatformFromTracker(id string, vt *VelocityTracker) (Platform, error) {
	vel, ok := vt.Velocity()
	if !ok {
		return Platform{}, fmt.Errorf("%w: platform %s needs two recorded positions", ErrInvalidInput, id)
	}
	return Platform{ID: id, Position: vt.Position(), Velocity: vel}, nil
}

// TrajectoryCandidate is one interception course. Vectors are inertial.
type TrajectoryCandidate struct {
	FlightTime        float64 // seconds
	DepartureEpoch    float64
	ArrivalEpoch      float64
	DeparturePosition Vector3
	DepartureVelocity Vector3
	ArrivalPosition   Vector3
	ArrivalVelocity   Vector3
	DepartureΔv       Vector3 // from the platform velocity
	RelativeVelocity  Vector3 // impactor minus target at arrival
	TargetΔv          Vector3 // imparted to the target on impact
	Propellant        float64 // kg
	CentralBody       string
	Revolutions       int
	ArrivalMiss       float64 // km, impactor flown by the live integrator vs the target at arrival
	Verified          bool
	KeplerMiss        float64 // km, RK4 two-body check of the Lambert arc, only when Verified
}

// Criterion ranks candidates, lower is better.
type Criterion func(TrajectoryCandidate) float64

// ByPropellant ranks candidates by propellant mass.
func ByPropellant(c TrajectoryCandidate) float64 {
	return c.Propellant
}

// ByFlightTime ranks candidates by flight time.
func ByFlightTime(c TrajectoryCandidate) float64 {
	return c.FlightTime
}

// SelectCandidate returns the index of the best candidate or -1 if there are none.
// Ties go to the lowest index.
func SelectCandidate(cands []TrajectoryCandidate, by Criterion) int {
	if by == nil {
		by = ByPropellant
	}
	best := -1
	var bestScore float64
	for i, c := range cands {
		if score := by(c); best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Search computes interception courses from a platform to a free body.
type Search struct {
	System         *System
	Integrator     Integrator
	Step           float64 // live simulation step, seconds
	CentralBody    string  // body assumed by the Lambert solve
	Lambert        LambertOptions
	Thruster       Thruster
	MomentumFactor float64 // β, 1 for a perfectly inelastic impact
	Verify         bool    // check each solution with the RK4 two-body propagator
	VerifyStep     float64
	MaxMiss        float64 // km, drop candidates whose live flight misses by more; zero keeps all
	logger         kitlog.Logger
	metrics        *Metrics
}

// SearchOption configures a Search.
type SearchOption func(*Search)

// WithSearchLogger sets the logger.
func WithSearchLogger(logger kitlog.Logger) SearchOption {
	return func(s *Search) {
		s.logger = logger
	}
}

// WithSearchMetrics sets the metrics.
func WithSearchMetrics(m *Metrics) SearchOption {
	return func(s *Search) {
		s.metrics = m
	}
}

// NewSearch returns a new search. The thruster defaults to an RL10.
func NewSearch(sys *System, integrator Integrator, step float64, centralBody string, opts ...SearchOption) (*Search, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %f", ErrInvalidInput, step)
	}
	if _, ok := sys.Body(centralBody); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBody, centralBody)
	}
	s := &Search{
		System: sys, Integrator: integrator, Step: step, CentralBody: centralBody,
		Lambert: DefaultLambertOptions(), Thruster: new(RL10), MomentumFactor: 1, VerifyStep: 10,
		logger: kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run evaluates every flight time and returns the viable candidates in input
// order. Flight times whose Lambert solve fails are dropped. An empty result is
// not an error.
func (s *Search) Run(epoch float64, platform Platform, target FreeBody, flightTimes []float64, impactorMass float64) []TrajectoryCandidate {
	central, _ := s.System.Body(s.CentralBody)
	μ := s.Integrator.Gravity.G * central.Mass
	c0, _ := s.System.PositionAt(s.CentralBody, epoch)
	cv0, _ := s.System.VelocityAt(s.CentralBody, epoch, s.Step)

	cands := make([]TrajectoryCandidate, 0, len(flightTimes))
	for _, tof := range flightTimes {
		if tof <= 0 {
			s.logger.Log("level", "debug", "subsys", "lambert", "tof", tof, "err", "non positive flight time")
			s.metrics.RecordLambert("invalid")
			continue
		}
		arrival := epoch + tof
		tgt := s.Integrator.Propagate(target, epoch, tof, s.Step, s.System)
		c1, _ := s.System.PositionAt(s.CentralBody, arrival)
		cv1, _ := s.System.VelocityAt(s.CentralBody, arrival, s.Step)

		r1 := platform.Position.Sub(c0)
		r2 := tgt.Position.Sub(c1)
		sol, err := Lambert(μ, r1, r2, tof, s.Lambert)
		if err != nil {
			s.logger.Log("level", "debug", "subsys", "lambert", "tof", tof, "err", err)
			s.metrics.RecordLambert(lambertResult(err))
			continue
		}
		s.metrics.RecordLambert("ok")

		c := TrajectoryCandidate{
			FlightTime:        tof,
			DepartureEpoch:    epoch,
			ArrivalEpoch:      arrival,
			DeparturePosition: platform.Position,
			DepartureVelocity: sol.V1.Add(cv0),
			ArrivalPosition:   tgt.Position,
			ArrivalVelocity:   sol.V2.Add(cv1),
			CentralBody:       s.CentralBody,
			Revolutions:       s.Lambert.Revolutions,
		}
		c.DepartureΔv = c.DepartureVelocity.Sub(platform.Velocity)
		c.RelativeVelocity = c.ArrivalVelocity.Sub(tgt.Velocity)
		if target.Mass > 0 {
			c.TargetΔv = c.RelativeVelocity.Scale(s.MomentumFactor * impactorMass / target.Mass)
		}
		c.Propellant = PropellantMass(s.Thruster, impactorMass, c.DepartureΔv.Norm())
		// The committed impactor flies under the central body only, with the live integrator.
		flown := s.Integrator.Propagate(FreeBody{Position: c.DeparturePosition, Velocity: c.DepartureVelocity}, epoch, tof, s.Step, SingleSource{System: s.System, ID: s.CentralBody})
		c.ArrivalMiss = flown.Position.Sub(tgt.Position).Norm()
		if s.MaxMiss > 0 && c.ArrivalMiss > s.MaxMiss {
			s.logger.Log("level", "debug", "subsys", "lambert", "tof", tof, "err", "live flight misses", "miss(km)", c.ArrivalMiss)
			s.metrics.RecordLambert("miss")
			continue
		}
		if s.Verify {
			if rEnd, _, verr := PropagateTwoBody(μ, r1, sol.V1, tof, s.VerifyStep); verr == nil {
				c.Verified = true
				c.KeplerMiss = rEnd.Sub(r2).Norm()
			}
		}
		s.logger.Log("level", "debug", "subsys", "lambert", "tof", tof, "Δv(km/s)", c.DepartureΔv.Norm(), "prop(kg)", c.Propellant, "iter", sol.Iterations)
		cands = append(cands, c)
	}
	s.metrics.RecordCandidates(len(cands))
	s.logger.Log("level", "info", "subsys", "lambert", "candidates", len(cands), "requested", len(flightTimes))
	return cands
}

func lambertResult(err error) string {
	switch {
	case errors.Is(err, ErrGeometry):
		return "geometry"
	case errors.Is(err, ErrInfeasibleTime):
		return "infeasible"
	case errors.Is(err, ErrConvergence):
		return "convergence"
	default:
		return "invalid"
	}
}
