package netsim

import "testing"

func TestPartitionedRNG_SameSubsystemReturnsCachedInstance(t *testing.T) {
	p := NewPartitionedRNG(NewSimulationKey(1))
	a := p.ForSubsystem(SubsystemTraffic)
	b := p.ForSubsystem(SubsystemTraffic)
	if a != b {
		t.Error("expected repeated lookups of the same subsystem to return the identical *rand.Rand")
	}
}

func TestPartitionedRNG_DifferentSubsystemsDrawDifferentSequences(t *testing.T) {
	p := NewPartitionedRNG(NewSimulationKey(1))
	traffic := p.ForSubsystem(SubsystemTraffic)
	power := p.ForSubsystem(SubsystemPowerGate)
	if traffic.Int63() == power.Int63() {
		t.Error("expected distinct subsystems to be seeded independently (collision is astronomically unlikely)")
	}
}

func TestPartitionedRNG_SameKeyAndSubsystemIsDeterministic(t *testing.T) {
	key := NewSimulationKey(42)
	p1 := NewPartitionedRNG(key)
	p2 := NewPartitionedRNG(key)
	r1 := p1.ForSubsystem(SubsystemTraffic)
	r2 := p2.ForSubsystem(SubsystemTraffic)
	for i := 0; i < 10; i++ {
		if r1.Int63() != r2.Int63() {
			t.Fatalf("expected identical draw sequences for the same key/subsystem at index %d", i)
		}
	}
}

func TestPartitionedRNG_DifferentKeysDiverge(t *testing.T) {
	p1 := NewPartitionedRNG(NewSimulationKey(1))
	p2 := NewPartitionedRNG(NewSimulationKey(2))
	if p1.ForSubsystem(SubsystemTraffic).Int63() == p2.ForSubsystem(SubsystemTraffic).Int63() {
		t.Error("expected different master seeds to diverge (collision is astronomically unlikely)")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	key := NewSimulationKey(7)
	p := NewPartitionedRNG(key)
	if p.Key() != key {
		t.Errorf("expected Key() to return %v, got %v", key, p.Key())
	}
}

func TestSubsystemRouter_NamesAreDistinctPerID(t *testing.T) {
	if SubsystemRouter(1) == SubsystemRouter(2) {
		t.Error("expected distinct router ids to produce distinct subsystem names")
	}
}
