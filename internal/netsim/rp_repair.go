package netsim

// RepairConnectivity implements aggressive-RP's connectivity repair
// heuristic (spec.md §9 open question (c)): when the off-router vector
// picked by auto-configuration would disconnect the on-router subgraph
// from the fabric manager, pick one of up to eight candidate edge routers
// at random and bring it back on, minimizing the number of off-routers
// still left on a dimension-order path between the fabric manager and the
// disconnected component. This is documented as a heuristic, not a
// correctness requirement — BuildRoutingTable independently verifies
// connectivity and fails initialization if repair did not succeed.
//
// offRouters is mutated in place; the returned bool reports whether any
// router was brought back on.
func RepairConnectivity(net *Network, offRouters map[RouterID]bool) bool {
	k := net.MeshK
	edgeCandidates := make([]RouterID, 0, 8)
	for i := 0; i < k*k; i++ {
		id := RouterID(i)
		if !offRouters[id] {
			continue
		}
		x, y := MeshCoord(i, k)
		if x == 0 || x == k-1 || y == 0 || y == k-1 {
			edgeCandidates = append(edgeCandidates, id)
		}
	}
	if len(edgeCandidates) == 0 {
		return false
	}

	// Candidates are gathered in id order, then shuffled before capping
	// and scoring, so which eight are scored and how ties between
	// equally-good candidates break depend only on this seeded draw.
	rng := net.RNG.ForSubsystem(SubsystemRPRepair)
	rng.Shuffle(len(edgeCandidates), func(i, j int) {
		edgeCandidates[i], edgeCandidates[j] = edgeCandidates[j], edgeCandidates[i]
	})
	if len(edgeCandidates) > 8 {
		edgeCandidates = edgeCandidates[:8]
	}

	best := edgeCandidates[0]
	bestOffOnPath := -1
	for _, cand := range edgeCandidates {
		n := offRoutersOnDimOrderPath(net, offRouters, net.FabricManager, cand)
		if bestOffOnPath == -1 || n < bestOffOnPath {
			bestOffOnPath = n
			best = cand
		}
	}

	delete(offRouters, best)
	return true
}

// offRoutersOnDimOrderPath counts how many off-routers lie on the
// dimension-order (XY) path from src to dest, used to rank repair
// candidates by how much connectivity a single repair buys back.
func offRoutersOnDimOrderPath(net *Network, offRouters map[RouterID]bool, src, dest RouterID) int {
	k := net.MeshK
	sx, sy := MeshCoord(int(src), k)
	dx, dy := MeshCoord(int(dest), k)

	count := 0
	x, y := sx, sy
	for x != dx {
		if dx > x {
			x++
		} else {
			x--
		}
		if offRouters[RouterID(MeshID(x, y, k))] {
			count++
		}
	}
	for y != dy {
		if dy > y {
			y++
		} else {
			y--
		}
		if offRouters[RouterID(MeshID(x, y, k))] {
			count++
		}
	}
	return count
}
