package mmm

import "testing"

func TestFreeBody(t *testing.T) {
	fb := FreeBody{ID: "rock", Velocity: Vec(1, 0, 0), FlightBudget: 100}
	pushed := fb.ApplyImpulse(Vec(0, 2, 0))
	if pushed.Velocity != Vec(1, 2, 0) || fb.Velocity != Vec(1, 0, 0) {
		t.Fatal("ApplyImpulse should return a modified copy")
	}
	if fb.Expired(99) || !fb.Expired(100) {
		t.Fatal("invalid flight budget")
	}
	fb.FlightBudget = 0
	if fb.Expired(1e12) {
		t.Fatal("a null budget never expires")
	}
}

func TestVelocityTracker(t *testing.T) {
	var vt VelocityTracker
	if _, ok := vt.Velocity(); ok {
		t.Fatal("empty tracker has no velocity")
	}
	vt.Record(0, Vec(0, 0, 0))
	if _, ok := vt.Velocity(); ok {
		t.Fatal("one record gives no velocity")
	}
	vt.Record(10, Vec(10, 0, 0))
	if v, ok := vt.Velocity(); !ok || v != Vec(1, 0, 0) {
		t.Fatalf("velocity %s", v)
	}
	// Same epoch replaces the last record.
	vt.Record(10, Vec(20, 0, 0))
	if v, _ := vt.Velocity(); v != Vec(2, 0, 0) {
		t.Fatalf("velocity %s after replacement", v)
	}
	vt.Record(20, Vec(20, 5, 0))
	if v, _ := vt.Velocity(); !vectorsEqual(v, Vec(0, 0.5, 0), 1e-15) || vt.Position() != Vec(20, 5, 0) {
		t.Fatalf("velocity %s", v)
	}
}
