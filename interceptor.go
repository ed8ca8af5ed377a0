package mmm

import (
	"fmt"

	kitlog "github.com/go-kit/kit/log"
)

// InterceptStatus is the state of an interceptor after a tick.
type InterceptStatus uint8

const (
	// Flying interceptors are still on their way.
	Flying InterceptStatus = iota + 1
	// Hit is returned on the tick of the impact.
	Hit
	// Expired is returned when the flight budget ran out without impact.
	Expired
	// Spent interceptors have already hit or expired.
	Spent
)

func (s InterceptStatus) String() string {
	switch s {
	case Flying:
		return "flying"
	case Hit:
		return "hit"
	case Expired:
		return "expired"
	case Spent:
		return "spent"
	default:
		panic(fmt.Errorf("unknown intercept status %d", s))
	}
}

// InterceptEvent describes an impact of an interceptor on its target.
type InterceptEvent struct {
	InterceptorID    string
	TargetID         string
	Epoch            float64
	Position         Vector3 // inertial
	RelativeVelocity Vector3
	TargetΔv         Vector3
}

// CommitOptions parametrizes a committed trajectory.
type CommitOptions struct {
	ID              string
	ProximityRadius float64 // km, impact distance to the target center
	Grace           float64 // seconds of flight allowed after the planned arrival
	Radius          float64 // km
	OnImpact        func(InterceptEvent)
	Logger          kitlog.Logger
	Metrics         *Metrics
}

// DefaultCommitOptions returns a 100 km proximity radius and a one hour grace period.
func DefaultCommitOptions() CommitOptions {
	return CommitOptions{ID: "interceptor", ProximityRadius: 100, Grace: 3600, Radius: 0.005}
}

// Interceptor is an impactor flying a committed trajectory under the single
// gravity source assumed by its Lambert solution.
type Interceptor struct {
	Body      FreeBody
	Candidate TrajectoryCandidate
	TargetID  string
	Launch    float64 // epoch
	opts      CommitOptions
	field     Field
	status    InterceptStatus
}

// CommitTrajectory spawns the impactor of a candidate at the epoch.
func CommitTrajectory(sys *System, candidate TrajectoryCandidate, impactorMass, epoch float64, targetID string, opts CommitOptions) (*Interceptor, error) {
	if _, ok := sys.Body(candidate.CentralBody); !ok {
		return nil, fmt.Errorf("%w: central body %s", ErrUnknownBody, candidate.CentralBody)
	}
	if candidate.FlightTime <= 0 || impactorMass <= 0 {
		return nil, fmt.Errorf("%w: flight time %f, mass %f", ErrInvalidInput, candidate.FlightTime, impactorMass)
	}
	if opts.ProximityRadius <= 0 {
		return nil, fmt.Errorf("%w: proximity radius %f", ErrInvalidInput, opts.ProximityRadius)
	}
	if opts.Logger == nil {
		opts.Logger = kitlog.NewNopLogger()
	}
	in := &Interceptor{
		Body: FreeBody{
			ID:           opts.ID,
			Position:     candidate.DeparturePosition,
			Velocity:     candidate.DepartureVelocity,
			Mass:         impactorMass,
			Radius:       opts.Radius,
			FlightBudget: candidate.FlightTime + opts.Grace,
		},
		Candidate: candidate,
		TargetID:  targetID,
		Launch:    epoch,
		opts:      opts,
		field:     SingleSource{System: sys, ID: candidate.CentralBody},
		status:    Flying,
	}
	opts.Logger.Log("level", "notice", "subsys", "intercept", "id", opts.ID, "target", targetID, "tof", candidate.FlightTime, "Δv(km/s)", candidate.DepartureΔv.Norm(), "prop(kg)", candidate.Propellant)
	return in, nil
}

// ArrivalEpoch returns the planned impact epoch.
func (in *Interceptor) ArrivalEpoch() float64 {
	return in.Launch + in.Candidate.FlightTime
}

// Status returns the current status.
func (in *Interceptor) Status() InterceptStatus {
	return in.status
}

// Advance integrates the interceptor from epoch to epoch+dt while the target moves
// from `target` to `targetNext`, and tests the step for impact. On impact the
// target state with the impulse applied is returned; otherwise targetNext is.
func (in *Interceptor) Advance(epoch, dt float64, integrator Integrator, target, targetNext FreeBody) (FreeBody, InterceptStatus) {
	if in.status != Flying {
		return targetNext, Spent
	}
	next := integrator.Step(in.Body, epoch, dt, in.field)
	s, hit := sweep(in.Body.Position, next.Position, target.Position, targetNext.Position, in.opts.ProximityRadius)
	prev := in.Body
	in.Body = next
	if hit {
		in.status = Spent
		evt := InterceptEvent{
			InterceptorID:    in.Body.ID,
			TargetID:         in.TargetID,
			Epoch:            epoch + s*dt,
			Position:         prev.Position.Lerp(next.Position, s),
			RelativeVelocity: prev.Velocity.Lerp(next.Velocity, s).Sub(target.Velocity.Lerp(targetNext.Velocity, s)),
			TargetΔv:         in.Candidate.TargetΔv,
		}
		in.opts.Metrics.RecordImpact("intercept")
		in.opts.Logger.Log("level", "critical", "subsys", "intercept", "id", evt.InterceptorID, "target", evt.TargetID, "epoch", evt.Epoch, "Δv(km/s)", evt.TargetΔv.Norm())
		if in.opts.OnImpact != nil {
			in.opts.OnImpact(evt)
		}
		return targetNext.ApplyImpulse(evt.TargetΔv), Hit
	}
	if in.Body.Expired(epoch + dt - in.Launch) {
		in.status = Spent
		in.opts.Logger.Log("level", "warning", "subsys", "intercept", "id", in.Body.ID, "status", "expired", "epoch", epoch+dt)
		return targetNext, Expired
	}
	return targetNext, Flying
}
