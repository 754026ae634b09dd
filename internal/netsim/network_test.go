package netsim

import "testing"

func TestNewNetwork_AlwaysOnMeshHasNoOffRouters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 4
	net, err := NewNetwork(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	if got := len(net.OffRouterIDs()); got != 0 {
		t.Errorf("expected 0 off routers on default config, got %d", got)
	}
	if net.NumRouters() != 16 {
		t.Errorf("expected 16 routers for a 4x4 mesh, got %d", net.NumRouters())
	}
}

func TestNewNetwork_ExplicitOffRouters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 4
	cfg.PowergateType = PGFLOV
	cfg.OffRouters = []int{5, 6}
	cfg.FabricManager = 0

	net, err := NewNetwork(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	off := net.OffRouterIDs()
	if len(off) != 2 {
		t.Fatalf("expected 2 off routers, got %d", len(off))
	}
	for _, id := range off {
		if net.Router(id).PowerState() != StatePowerOff {
			t.Errorf("router %d should start power_off", id)
		}
	}
}

func TestNewNetwork_FabricManagerNeverAutoSelectedOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 4
	cfg.FabricManager = 3
	cfg.PowergateAutoConfig = true
	cfg.PowergatePercentile = 40
	cfg.PowergateType = PGFLOV
	cfg.PowergateSeed = 99

	net, err := NewNetwork(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	for _, id := range net.OffRouterIDs() {
		if id == net.FabricManager {
			t.Fatal("fabric manager must never be auto-selected into the off-router set")
		}
	}
}

func TestNewNetwork_InvalidConfigRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 0
	if _, err := NewNetwork(cfg, quietLogger()); err == nil {
		t.Fatal("expected an error constructing a network from an invalid config")
	}
}

func TestNewNetwork_NoRDRoutesAroundOffRouterViaRing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 4
	cfg.PowergateType = PGNoRD
	cfg.OffRouters = []int{1} // (1,0): the mesh-direct next hop from 0 toward 2
	cfg.FabricManager = 0

	net, err := NewNetwork(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}

	src := net.Router(0)
	f := NewFlit()
	f.Dest = 2
	f.Head = true
	f.Tail = true
	if !src.Inject(f, 0) {
		t.Fatal("expected injection to succeed")
	}

	dest := net.Router(2)
	var got *Flit
	for cycle := 0; cycle < 50; cycle++ {
		net.Step()
		if flit, ok := dest.Eject(); ok {
			got = flit
			break
		}
	}
	if got == nil {
		t.Fatal("expected the packet to reach router 2 via the bypass ring around the off router at 1")
	}

	off := net.Router(1)
	if off.Stats().VCAllocs != 0 || off.Stats().SwitchAllocs != 0 {
		t.Error("the off router must never run VA/SA itself; the packet should only transit its ring pass-through")
	}
}

func TestNetwork_StepAdvancesCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 2
	net, err := NewNetwork(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	start := net.Cycle
	net.Step()
	if net.Cycle != start+1 {
		t.Errorf("expected cycle to advance by 1, got %d -> %d", start, net.Cycle)
	}
}
