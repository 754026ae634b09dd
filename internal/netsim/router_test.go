package netsim

import "testing"

func TestRouter_InjectRejectsWhenVCFull(t *testing.T) {
	net := newTestNetwork4x4(t)
	r := net.Router(0)
	ok := true
	var n int
	for ok {
		f := NewFlit()
		f.Dest = 0
		ok = r.Inject(f, 0)
		if ok {
			n++
		}
		if n > 1000 {
			t.Fatal("Inject never reported VC full")
		}
	}
	if n == 0 {
		t.Fatal("expected at least one successful inject before the VC filled")
	}
}

func TestRouter_EjectEmptyReturnsFalse(t *testing.T) {
	net := newTestNetwork4x4(t)
	r := net.Router(0)
	if _, ok := r.Eject(); ok {
		t.Error("expected no flit to eject from a freshly built router")
	}
}

func TestRouter_FlitTraversesOneHopAndEjects(t *testing.T) {
	net := newTestNetwork4x4(t)
	src := net.Router(0)          // (0,0)
	destID := RouterID(1)         // (1,0), east neighbor of 0

	f := NewFlit()
	f.ID = 1
	f.PacketID = 1
	f.Dest = int(destID)
	f.Head = true
	f.Tail = true
	if !src.Inject(f, 0) {
		t.Fatal("expected injection into an empty VC to succeed")
	}

	dest := net.Router(destID)
	var got *Flit
	for cycle := 0; cycle < 30; cycle++ {
		net.Step()
		if flit, ok := dest.Eject(); ok {
			got = flit
			break
		}
	}
	if got == nil {
		t.Fatal("expected the injected flit to arrive at its one-hop destination within 30 cycles")
	}
	if got.ID != 1 || got.PacketID != 1 {
		t.Errorf("expected the same flit to arrive, got ID=%d PacketID=%d", got.ID, got.PacketID)
	}
}

func TestRouter_PowerStateStartsPowerOn(t *testing.T) {
	net := newTestNetwork4x4(t)
	r := net.Router(0)
	if r.PowerState() != StatePowerOn {
		t.Errorf("expected a freshly built always-on router to start power_on, got %v", r.PowerState())
	}
}

func TestRouter_StatsAccumulateAfterTraversal(t *testing.T) {
	net := newTestNetwork4x4(t)
	src := net.Router(0)
	f := NewFlit()
	f.Dest = 1
	f.Head = true
	f.Tail = true
	src.Inject(f, 0)
	for cycle := 0; cycle < 30; cycle++ {
		net.Step()
	}
	if src.Stats().CrossbarTraversals == 0 {
		t.Error("expected at least one crossbar traversal at the source router")
	}
	if src.Stats().VCAllocs == 0 {
		t.Error("expected at least one VC allocation at the source router")
	}
}

func TestRouter_CyclesOffZeroWhenNeverGated(t *testing.T) {
	net := newTestNetwork4x4(t)
	r := net.Router(0)
	net.Run(10)
	if r.CyclesOff() != 0 {
		t.Errorf("expected an always-on router to never accrue off cycles, got %d", r.CyclesOff())
	}
}

func TestRouter_PowerOffGatesRCVASA(t *testing.T) {
	net := newTestNetwork4x4(t)
	r := net.Router(5)
	r.pg.State = StatePowerOff

	f := NewFlit()
	f.Dest = 6
	f.Head = true
	f.Tail = true
	if !r.Inject(f, 0) {
		t.Fatal("expected injection to still succeed against a power_off router's Local VC")
	}

	for i := 0; i < 20; i++ {
		r.Evaluate()
	}

	if got := r.Stats().VCAllocs; got != 0 {
		t.Errorf("a power_off router must never run VA, got %d VC allocations", got)
	}
	if got := r.Stats().SwitchAllocs; got != 0 {
		t.Errorf("a power_off router must never run SA, got %d switch allocations", got)
	}
	if r.inputs[Local].VCs[0].State != VCRouting {
		t.Errorf("expected the head flit to remain stuck in routing while power_off, got %v",
			r.inputs[Local].VCs[0].State)
	}
}

func TestRouter_HasNoTrafficTowardIgnoresNorthPortSentinel(t *testing.T) {
	net := newTestNetwork4x4(t)
	r := net.Router(5) // (1,1): has a North neighbor
	if !r.hasNoTrafficToward(North) {
		t.Fatal("expected no reservation against North on a freshly built router")
	}
	r.outputBufStates[North].Reserve(0, North, 0)
	if r.hasNoTrafficToward(North) {
		t.Error("a live reservation from the North input itself must still count as traffic toward North")
	}
}
