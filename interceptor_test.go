package mmm

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// voidSystem has a single negligible mass, so that impactors fly straight.
func voidSystem(t *testing.T) *System {
	sys, err := NewSystem([]MassiveBody{{ID: "Void", Mass: 1}}, DefaultKeplerSolver)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	return sys
}

func straightCandidate(tof float64) TrajectoryCandidate {
	return TrajectoryCandidate{
		FlightTime:        tof,
		DepartureVelocity: Vec(1, 0, 0),
		TargetΔv:          Vec(0, 0.01, 0),
		CentralBody:       "Void",
	}
}

func TestCommitTrajectoryErrors(t *testing.T) {
	sys := voidSystem(t)
	c := straightCandidate(1000)
	c.CentralBody = "Vulcan"
	if _, err := CommitTrajectory(sys, c, 100, 0, "meteor", DefaultCommitOptions()); !errors.Is(err, ErrUnknownBody) {
		t.Fatal("expected an unknown body")
	}
	if _, err := CommitTrajectory(sys, straightCandidate(0), 100, 0, "meteor", DefaultCommitOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected an error for a null flight time")
	}
	if _, err := CommitTrajectory(sys, straightCandidate(1000), 0, 0, "meteor", DefaultCommitOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected an error for a null mass")
	}
	opts := DefaultCommitOptions()
	opts.ProximityRadius = 0
	if _, err := CommitTrajectory(sys, straightCandidate(1000), 100, 0, "meteor", opts); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected an error for a null proximity radius")
	}
}

func TestInterceptorHit(t *testing.T) {
	sys := voidSystem(t)
	integrator := NewIntegrator(DefaultGravity, 60)
	var events []InterceptEvent
	opts := DefaultCommitOptions()
	opts.ProximityRadius = 130
	opts.OnImpact = func(evt InterceptEvent) {
		events = append(events, evt)
	}
	in, err := CommitTrajectory(sys, straightCandidate(1000), 100, 0, "meteor", opts)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	if in.ArrivalEpoch() != 1000 || in.Status() != Flying {
		t.Fatalf("invalid interceptor %+v", in)
	}
	target := FreeBody{ID: "meteor", Position: Vec(1000, 0, 0), Mass: 1e6}
	var status InterceptStatus
	var next FreeBody
	epoch := 0.0
	for ; epoch < 1000; epoch += 60 {
		next, status = in.Advance(epoch, 60, integrator, target, target)
		if status != Flying {
			break
		}
	}
	if status != Hit || epoch != 840 {
		t.Fatalf("expected a hit on the step starting at 840, got %s at %f", status, epoch)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	evt := events[0]
	if !scalar.EqualWithinAbs(evt.Epoch, 870, 1e-6) || !vectorsEqual(evt.Position, Vec(870, 0, 0), 1e-6) {
		t.Fatalf("impact at %f %s", evt.Epoch, evt.Position)
	}
	if !vectorsEqual(evt.RelativeVelocity, Vec(1, 0, 0), 1e-9) || evt.TargetID != "meteor" || evt.InterceptorID != "interceptor" {
		t.Fatalf("invalid event %+v", evt)
	}
	if !vectorsEqual(next.Velocity, Vec(0, 0.01, 0), 1e-15) {
		t.Fatalf("impulse not applied to the target: %s", next.Velocity)
	}
	// Spent interceptors leave the target alone.
	if after, status := in.Advance(epoch+60, 60, integrator, target, target); status != Spent || after != target || len(events) != 1 {
		t.Fatalf("spent interceptor acted: %s", status)
	}
}

func TestInterceptorExpiry(t *testing.T) {
	sys := voidSystem(t)
	integrator := NewIntegrator(DefaultGravity, 60)
	opts := DefaultCommitOptions()
	opts.Grace = 50
	in, err := CommitTrajectory(sys, straightCandidate(100), 100, 0, "meteor", opts)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	target := FreeBody{ID: "meteor", Position: Vec(1e6, 0, 0), Mass: 1e6}
	expected := []InterceptStatus{Flying, Flying, Expired, Spent}
	for i, exp := range expected {
		if _, status := in.Advance(float64(i)*60, 60, integrator, target, target); status != exp {
			t.Fatalf("step %d: %s, expected %s", i, status, exp)
		}
	}
}

func TestSearchedInterceptorHits(t *testing.T) {
	s := planetSearch(t)
	s.MaxMiss = DefaultCommitOptions().ProximityRadius
	cands := s.Run(0, lowPlatform, orbiter, []float64{1800, 3600, 5400}, 500)
	best := SelectCandidate(cands, ByFlightTime)
	if best < 0 || cands[best].FlightTime != 1800 {
		t.Fatalf("expected the 1800 s candidate, got %d of %d", best, len(cands))
	}
	c := cands[best]
	var events []InterceptEvent
	opts := DefaultCommitOptions()
	opts.OnImpact = func(evt InterceptEvent) { events = append(events, evt) }
	in, err := CommitTrajectory(s.System, c, 500, 0, orbiter.ID, opts)
	if err != nil {
		t.Fatalf("err: %s", err)
	}
	target := orbiter
	status := Flying
	var epoch float64
	for ; status == Flying; epoch += s.Step {
		next := s.Integrator.Step(target, epoch, s.Step, s.System)
		var out FreeBody
		out, status = in.Advance(epoch, s.Step, s.Integrator, target, next)
		if status == Hit && !vectorsEqual(out.Velocity, next.Velocity.Add(c.TargetΔv), 1e-12) {
			t.Fatalf("target Δv not applied: %s vs %s", out.Velocity, next.Velocity)
		}
		target = out
	}
	if status != Hit || len(events) != 1 {
		t.Fatalf("expected a hit, got %s", status)
	}
	if events[0].Epoch < c.FlightTime-60 || events[0].Epoch > c.FlightTime {
		t.Fatalf("hit at %f for a planned arrival at %f", events[0].Epoch, c.FlightTime)
	}
	if c.TargetΔv.IsZero() || events[0].TargetΔv != c.TargetΔv {
		t.Fatalf("invalid target Δv %s", events[0].TargetΔv)
	}
}
