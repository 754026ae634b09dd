package netsim

import "testing"

func TestRepairConnectivity_BringsBackAnEdgeRouter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 4
	net := &Network{MeshK: 4, FabricManager: 0, RNG: NewPartitionedRNG(NewSimulationKey(cfg.Seed))}

	off := map[RouterID]bool{1: true, 4: true, 15: true}
	ok := RepairConnectivity(net, off)
	if !ok {
		t.Fatal("expected RepairConnectivity to report success with edge candidates available")
	}
	if len(off) != 2 {
		t.Errorf("expected exactly one router removed from the off-set, got %d remaining off (%v)", len(off), off)
	}
}

func TestRepairConnectivity_NoEdgeCandidates(t *testing.T) {
	net := &Network{MeshK: 4, FabricManager: 0, RNG: NewPartitionedRNG(NewSimulationKey(1))}
	off := map[RouterID]bool{} // no off routers at all: no candidates
	if RepairConnectivity(net, off) {
		t.Error("expected RepairConnectivity to report no repair when off set is empty")
	}
}

func TestOffRoutersOnDimOrderPath_CountsBlockers(t *testing.T) {
	net := &Network{MeshK: 4}
	off := map[RouterID]bool{1: true, 2: true}
	// src=0 (0,0) -> dest=3 (3,0): XY path passes through (1,0)=id1, (2,0)=id2, (3,0)=id3.
	n := offRoutersOnDimOrderPath(net, off, 0, 3)
	if n != 2 {
		t.Errorf("expected 2 off-routers on the path, got %d", n)
	}
}

func TestOffRoutersOnDimOrderPath_NoBlockers(t *testing.T) {
	net := &Network{MeshK: 4}
	off := map[RouterID]bool{}
	if n := offRoutersOnDimOrderPath(net, off, 0, 3); n != 0 {
		t.Errorf("expected 0 off-routers on an unobstructed path, got %d", n)
	}
}

func TestRepairConnectivity_PrefersCandidateMinimizingBlockedPath(t *testing.T) {
	// 4x4 mesh, fabric manager at 0 (0,0). All four off routers are edge
	// candidates. Off routers on the XY path from the manager, candidate
	// included: 1 -> 1, 2 -> 2 (1, 2), 3 -> 3 (1, 2, 3), 13 (1,3) -> 2
	// (1, 13). Router 1 is the unique minimum.
	net := &Network{MeshK: 4, FabricManager: 0, RNG: NewPartitionedRNG(NewSimulationKey(7))}
	off := map[RouterID]bool{1: true, 2: true, 3: true, 13: true}
	RepairConnectivity(net, off)
	if len(off) != 3 {
		t.Fatalf("expected exactly one repair, got %d routers still off", len(off))
	}
	if off[1] {
		t.Errorf("expected router 1 (fewest off routers on its path) to be brought back, still off: %v", off)
	}
}
