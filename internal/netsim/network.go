package netsim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// Link is the pair of channel sets riding one directed edge of the mesh:
// the flit/credit/handshake Channel[T] instances a single router's
// WriteOutputs sends into on one port, and the neighbor's ReadInputs
// receives from on the opposite port (spec.md §4.1).
type Link struct {
	flit      *Channel[*Flit]
	credit    *Channel[*Credit]
	handshake *Channel[*Handshake]
}

// newLink builds a Link with the mesh's wire latency for every one of its
// three channels. Wire latency is distinct from a router's internal
// routing_delay/crossbar_delay/credit_delay (spec.md §4.2); it is the
// mesh interconnect's own flight time and defaults to 1 cycle.
func newLink(wireLatency int) *Link {
	return &Link{
		flit:      NewChannel[*Flit](wireLatency),
		credit:    NewChannel[*Credit](wireLatency),
		handshake: NewChannel[*Handshake](wireLatency),
	}
}

// Network is the arena owning every Router and Link by index (spec.md §9:
// "arena owning routers and channels by index; every cross-reference is a
// 32-bit id, never a pointer"). It also drives the four-phase per-cycle
// pipeline and holds the topology-wide collaborators — RoutingTable for
// RP, the on/off-router vector, and the master RNG.
type Network struct {
	Config Config
	Cycle  int64

	MeshK         int
	FabricManager RouterID

	RoutingTable *RoutingTable

	routers  []*Router
	outgoing [][numPorts]*Link // outgoing[id][p]: link id sends out of port p

	// ring* overlay the NoRD bypass ring on top of the mesh (spec.md §4.3
	// "a uni-directional ring channel overlays the mesh"), built only when
	// the configured policy reports UsesBypassRing(). ringLinks[id] is the
	// single-flit-per-cycle Channel a router sends ring traffic out on;
	// ringNextOf/ringPrevOf give the ring's fixed hop order.
	ringLinks  []*Channel[*Flit]
	ringNextOf []RouterID
	ringPrevOf []RouterID

	onRouters map[RouterID]bool

	RNG    *PartitionedRNG
	logger *logrus.Logger
}

// NewNetwork builds a k-by-k mesh Network per cfg, auto-selecting or
// applying the configured off-router set, constructing the shared
// PowerGatingPolicy, and building the RP RoutingTable when needed. Returns
// an error for any spec.md §7 kind-1 configuration error.
func NewNetwork(cfg Config, logger *logrus.Logger) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k := cfg.K
	numRouters := k * k

	net := &Network{
		Config:        cfg,
		MeshK:         k,
		FabricManager: RouterID(cfg.FabricManager),
		routers:       make([]*Router, numRouters),
		outgoing:      make([][numPorts]*Link, numRouters),
		RNG:           NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		logger:        logger,
	}

	offRouters, err := net.resolveOffRouters(cfg)
	if err != nil {
		return nil, err
	}

	policy := NewPowerGatingPolicy(cfg.PowergateType)
	if rp, ok := policy.(rpPolicy); ok && rp.aggressive {
		for attempt := 0; attempt < len(offRouters) && !meshConnected(k, offRouters, net.FabricManager); attempt++ {
			if !RepairConnectivity(net, offRouters) {
				break
			}
		}
	}

	net.onRouters = make(map[RouterID]bool, numRouters)
	for id := 0; id < numRouters; id++ {
		net.onRouters[RouterID(id)] = !offRouters[RouterID(id)]
	}
	routeFn := NewRoutingFunc(cfg.RoutingFunction)
	thresholds := PowerGateThresholds{
		IdleThreshold:   cfg.IdleThreshold,
		DrainThreshold:  cfg.DrainThreshold,
		BETThreshold:    cfg.BETThreshold,
		WakeupThreshold: cfg.WakeupThreshold,
	}
	rc := RouterConfig{
		NumVCs:          cfg.Classes * cfg.VCsPerClass,
		VCBufSize:       cfg.VCBufSize,
		RoutingDelay:    cfg.RoutingDelay,
		CrossbarDelay:   cfg.CrossbarDelay,
		CreditDelay:     cfg.CreditDelay,
		Speculative:     cfg.Speculative,
		HoldSwitch:      cfg.HoldSwitchForPacket,
		InternalSpeedup: cfg.InternalSpeedup,
		VCArbiter:       cfg.VCAllocator,
		SWArbiter:       cfg.SWAllocator,
		InputSpeedup:    cfg.InputSpeedup,
		OutputSpeedup:   cfg.OutputSpeedup,
		AllocIters:      cfg.AllocIters,
		InputFirst:      true,
	}

	watched := make(map[int]bool, len(cfg.WatchPowerGatingRouters))
	for _, id := range cfg.WatchPowerGatingRouters {
		watched[id] = true
	}

	for id := 0; id < numRouters; id++ {
		r := NewRouter(RouterID(id), net, rc, policy, routeFn, thresholds, logger)
		r.watch = watched[id]
		if offRouters[RouterID(id)] {
			r.pg.State = StatePowerOff
		}
		net.routers[id] = r
	}

	net.wireMesh()
	if policy.UsesBypassRing() {
		net.wireRing()
	}

	if policy.UsesEscapeRouting() {
		rt, err := BuildRoutingTable(net)
		if err != nil {
			return nil, fmt.Errorf("netsim: building RP routing table: %w", err)
		}
		net.RoutingTable = rt
	}

	return net, nil
}

// resolveOffRouters derives the off-router set either from the explicit
// off_routers list or, under powergate_auto_config, by drawing
// powergate_percentile percent of non-fabric-manager routers using a
// seeded RNG (spec.md §9 open question (b): replaces the legacy hard-coded
// off-percentile tables).
func (net *Network) resolveOffRouters(cfg Config) (map[RouterID]bool, error) {
	off := make(map[RouterID]bool, len(cfg.OffRouters))
	for _, id := range cfg.OffRouters {
		off[RouterID(id)] = true
	}
	if !cfg.PowergateAutoConfig {
		delete(off, net.FabricManager)
		return off, nil
	}

	numRouters := cfg.K * cfg.K
	candidates := make([]RouterID, 0, numRouters)
	for id := 0; id < numRouters; id++ {
		if RouterID(id) == net.FabricManager {
			continue
		}
		candidates = append(candidates, RouterID(id))
	}
	rng := net.powergateRNG()
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	want := (len(candidates) * cfg.PowergatePercentile) / 100
	for i := 0; i < want; i++ {
		off[candidates[i]] = true
	}
	delete(off, net.FabricManager)
	return off, nil
}

// powergateRNG returns the RNG used to draw the auto-configured off-router
// set. A nonzero powergate_seed overrides the partitioned master-seed draw
// with its own independent source, so the off-router draw can be repeated
// or swept across runs without disturbing the traffic/router RNG streams
// (spec.md §6 powergate_seed).
func (net *Network) powergateRNG() *rand.Rand {
	if net.Config.PowergateSeed != 0 {
		return rand.New(rand.NewSource(net.Config.PowergateSeed))
	}
	return net.RNG.ForSubsystem(SubsystemPowerGate)
}

// ringOrder returns the fixed hop sequence of the NoRD bypass ring: a
// boustrophedon (snake) sweep of the mesh rows, alternating direction each
// row and closing the last router back to the first. Every consecutive
// pair in the returned slice (including last-to-first) is mesh-adjacent,
// so the ring can be realized with single-hop-latency Channels exactly
// like any mesh link. original_source's ring construction
// (nordtrafficmanager.cpp's GetRingID/GetRingOutputChannel) was not part
// of the retrieved reference material, so this concrete Hamiltonian-cycle
// choice is this implementation's own, grounded only in the requirement
// that the ring be a single cycle over all routers.
func ringOrder(k int) []RouterID {
	order := make([]RouterID, 0, k*k)
	for y := 0; y < k; y++ {
		if y%2 == 0 {
			for x := 0; x < k; x++ {
				order = append(order, RouterID(MeshID(x, y, k)))
			}
		} else {
			for x := k - 1; x >= 0; x-- {
				order = append(order, RouterID(MeshID(x, y, k)))
			}
		}
	}
	return order
}

// wireRing overlays the uni-directional bypass ring on top of the mesh
// (spec.md §4.3 NoRD): one single-slot Channel per router to send ring
// traffic out on, plus the fixed next/prev hop tables from ringOrder.
func (net *Network) wireRing() {
	n := len(net.routers)
	order := ringOrder(net.MeshK)
	net.ringLinks = make([]*Channel[*Flit], n)
	net.ringNextOf = make([]RouterID, n)
	net.ringPrevOf = make([]RouterID, n)
	for i, id := range order {
		next := order[(i+1)%len(order)]
		net.ringNextOf[id] = next
		net.ringPrevOf[next] = id
		net.ringLinks[id] = NewChannel[*Flit](1)
	}
}

// ringLinkOutOf returns the Channel a router sends ring traffic out on, or
// nil when the network has no bypass ring.
func (net *Network) ringLinkOutOf(id RouterID) *Channel[*Flit] {
	if net.ringLinks == nil {
		return nil
	}
	return net.ringLinks[id]
}

// ringLinkInto returns the Channel a router receives ring traffic on: its
// ring-predecessor's outgoing ring channel.
func (net *Network) ringLinkInto(id RouterID) *Channel[*Flit] {
	if net.ringLinks == nil {
		return nil
	}
	return net.ringLinks[net.ringPrevOf[id]]
}

// wireMesh connects each router's four compass ports to its mesh neighbor
// (plain mesh, not torus: edge routers have NoNeighbor on the boundary
// ports), allocating one directed Link per (router, port).
func (net *Network) wireMesh() {
	k := net.MeshK
	for id := 0; id < len(net.routers); id++ {
		x, y := MeshCoord(id, k)
		r := net.routers[id]
		if y > 0 {
			r.neighbors[North] = RouterID(MeshID(x, y-1, k))
		}
		if x < k-1 {
			r.neighbors[East] = RouterID(MeshID(x+1, y, k))
		}
		if y < k-1 {
			r.neighbors[South] = RouterID(MeshID(x, y+1, k))
		}
		if x > 0 {
			r.neighbors[West] = RouterID(MeshID(x-1, y, k))
		}
		for p := Port(0); p < numPorts; p++ {
			if p == Local || r.neighbors[p] == NoNeighbor {
				continue
			}
			net.outgoing[id][p] = newLink(1)
		}
	}
	// Downstream buffer capacity drops to 1 on edges leading to a
	// power_off router at construction time (bypass-latch semantics,
	// spec.md §3). This is the only place capacities are changed; later
	// power-state transitions leave them as set here.
	for _, r := range net.routers {
		for p := Port(0); p < numPorts; p++ {
			if p == Local || r.neighbors[p] == NoNeighbor {
				continue
			}
			if net.routers[r.neighbors[p]].pg.State == StatePowerOff {
				for vc := 0; vc < r.numVCs; vc++ {
					r.outputBufStates[p].SetCapacity(vc, 1)
				}
			}
		}
	}
}

// meshConnected reports whether every on-router (per k and offRouters) is
// reachable from root via mesh adjacency, using geometry alone — it runs
// before any Router exists, to decide whether aggressive-RP's repair
// heuristic needs to run before router construction.
func meshConnected(k int, offRouters map[RouterID]bool, root RouterID) bool {
	total := k*k - len(offRouters)
	if offRouters[root] {
		return total == 0
	}
	visited := map[RouterID]bool{root: true}
	queue := []RouterID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		x, y := MeshCoord(int(cur), k)
		neighbors := []RouterID{}
		if y > 0 {
			neighbors = append(neighbors, RouterID(MeshID(x, y-1, k)))
		}
		if x < k-1 {
			neighbors = append(neighbors, RouterID(MeshID(x+1, y, k)))
		}
		if y < k-1 {
			neighbors = append(neighbors, RouterID(MeshID(x, y+1, k)))
		}
		if x > 0 {
			neighbors = append(neighbors, RouterID(MeshID(x-1, y, k)))
		}
		for _, nb := range neighbors {
			if offRouters[nb] || visited[nb] {
				continue
			}
			visited[nb] = true
			queue = append(queue, nb)
		}
	}
	return len(visited) == total
}

// linkOutOf returns the Link a router sends out of port p on.
func (net *Network) linkOutOf(id RouterID, p Port) *Link { return net.outgoing[id][p] }

// linkInto returns the Link a router receives arrivals on at port p: the
// neighbor's outgoing link on the opposite port.
func (net *Network) linkInto(id RouterID, p Port) *Link {
	nb := net.routers[id].neighbors[p]
	return net.outgoing[nb][p.Opposite()]
}

// isOnRouter reports whether id is a member of the on-router subgraph
// (never power_off by configuration, as opposed to transiently draining).
func (net *Network) isOnRouter(id RouterID) bool {
	if id == NoNeighbor {
		return false
	}
	return net.onRouters[id]
}

// Router returns the router at id.
func (net *Network) Router(id RouterID) *Router { return net.routers[id] }

// NumRouters returns the number of routers in the mesh (k*k).
func (net *Network) NumRouters() int { return len(net.routers) }

// Step advances the simulation by exactly one cycle, running the four
// ordered phases across every router before advancing every channel
// (spec.md §2 phase ordering, §5 ordering guarantee: every router sees the
// same cycle's inputs before any router's outputs are visible next
// cycle). Use this directly only when no TrafficManager is attached —
// TrafficManager.Step interleaves its own injection/ejection work inside
// phase 3 and calls the phase helpers below itself.
func (net *Network) Step() {
	net.readAllInputs()
	net.evaluatePowerStateAll()
	net.evaluateAll()
	net.writeOutputsAndAdvance()
}

func (net *Network) readAllInputs() {
	for _, r := range net.routers {
		r.ReadInputs()
	}
}

func (net *Network) evaluatePowerStateAll() {
	for _, r := range net.routers {
		r.PowerStateEvaluate()
	}
}

func (net *Network) evaluateAll() {
	for _, r := range net.routers {
		r.Evaluate()
	}
}

// writeOutputsAndAdvance flushes every router's pending outputs, advances
// every channel exactly once, and then advances the cycle counter — the
// counter must advance after WriteOutputs so that WriteOutputs' own
// readyCycle comparisons (spec.md §4.2 ST) use the cycle the work was
// actually done in.
func (net *Network) writeOutputsAndAdvance() {
	for _, r := range net.routers {
		r.WriteOutputs()
	}
	net.advanceChannels()
	net.Cycle++
}

// advanceChannels advances every physical Link's three channels exactly
// once per cycle. This is centralized here, rather than inside each
// Router.WriteOutputs, because a single Link is written by one router and
// read by its neighbor — advancing it twice (once per endpoint) would
// silently drop or duplicate in-flight items.
func (net *Network) advanceChannels() {
	for id := range net.outgoing {
		for p := Port(0); p < numPorts; p++ {
			link := net.outgoing[id][p]
			if link == nil {
				continue
			}
			link.flit.Advance()
			link.credit.Advance()
			link.handshake.Advance()
		}
	}
	for _, ring := range net.ringLinks {
		if ring != nil {
			ring.Advance()
		}
	}
}

// Run steps the simulation for the given number of cycles.
func (net *Network) Run(cycles int64) {
	for i := int64(0); i < cycles; i++ {
		net.Step()
	}
}

// OffRouterIDs returns the sorted list of router ids that are members of
// the off-router set (not necessarily currently power_off — a member may
// be transiently draining or waking).
func (net *Network) OffRouterIDs() []RouterID {
	ids := make([]RouterID, 0)
	for id, on := range net.onRouters {
		if !on {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
