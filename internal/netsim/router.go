package netsim

import "github.com/sirupsen/logrus"

// NoNeighbor marks a router port with no attached neighbor (mesh edge).
const NoNeighbor RouterID = -1

// Router is the single, per-scheme-generalized input-queued router
// (spec.md §4.2, §9 REDESIGN NOTES). Every power-gating scheme shares
// this struct; behavior differs only through the PowerGatingPolicy hook
// set and the routing table/bypass-ring collaborators a Network wires in
// for RP/NoRD.
type Router struct {
	id      RouterID
	network *Network

	// neighbors names the RouterID reachable out each port, addressed by
	// id rather than pointer (spec.md §9: "arena owning routers and
	// channels by index ... every cross-reference is a 32-bit id").
	// NoNeighbor for mesh edges. Local has no neighbor; it faces the
	// attached compute tile via Router.Inject and Router.Eject.
	neighbors [numPorts]RouterID

	inputs          [numPorts]*Buffer
	outputBufStates [numPorts]*BufferState

	ejectQueue []*Flit // flits that RC resolved to Local, awaiting Eject

	pg         PowerGateState
	thresholds PowerGateThresholds
	policy     PowerGatingPolicy
	routeFn    RoutingFunc

	numVCs       int
	vcBufSize    int
	routingDelay int
	crossbarDelay int
	creditDelay   int
	speculative   bool
	holdSwitch    bool
	internalSpeedup int
	inputSpeedup    int
	outputSpeedup   int
	allocIters      int

	vaAlloc *SeparableAllocator
	saAlloc *SeparableAllocator
	vcPick  [numPorts]*RoundRobinArbiter // per-input-port picker among its own VCs for SA

	// ring* implement the NoRD bypass ring (spec.md §4.3): ringBusy caps
	// this router's ring-output Channel to one Send per cycle, shared
	// between pass-through forwarding and fresh injection; pendingRingOut
	// latches an outbound ring flit until WriteOutputs flushes it;
	// ringPick fairly arbitrates among (port,vc) pairs contending to
	// inject onto the ring in a given cycle.
	ringBusy       bool
	pendingRingOut []pendingFlit
	ringPick       *RoundRobinArbiter

	// neighborStates is this router's view of each neighbor's advertised
	// power state, updated by incoming handshakes (spec.md §4.4 State
	// advertisement).
	neighborStates [numPorts]PowerState
	// logicalNeighbor: nearest on-router along this axis, announced by
	// FLOV logical-neighbor-update handshakes.
	logicalNeighbor    [numPorts]RouterID
	logicalNeighborSet [numPorts]bool

	// pending* buffer per-cycle sends until WriteOutputs flushes them
	// (spec.md §5: "buffering outputs in out queues"). Each entry also
	// carries the cycle at which it becomes eligible to move onto its
	// Channel, implementing crossbar_delay (flits) and credit_delay
	// (credits) as pipeline latches ahead of the channel itself.
	pendingFlitOut      [numPorts][]pendingFlit
	pendingCreditOut    [numPorts][]pendingCredit
	pendingHandshakeOut [numPorts][]*Handshake

	activityThisCycle bool
	logger            *logrus.Logger
	watch             bool

	// vcAllocWait tracks, per (port,vc), cycles spent waiting in
	// vc_alloc without a grant (spec.md §4.2 Failure watchdog).
	vcAllocWait [numPorts][]int
	// routeReadyAt[port][vc]: cycle at which RC's routing delay elapses.
	routeReadyAt [numPorts][]int64

	// stats accumulates per-event counts energy.Model multiplies by DSENT
	// coefficients at report time (spec.md §6 "energy totals computed from
	// accumulated counts").
	stats RouterEventCounts
}

// RouterEventCounts tallies the activity energy.Model needs: one counter
// per billable micro-architectural event (spec.md §4 DSENT accounting,
// grounded on booksim2/src/power/dsent_power_module.cpp's per-component
// activity factors).
type RouterEventCounts struct {
	BufferWrites       int64
	BufferReads        int64
	CrossbarTraversals int64
	SwitchAllocs       int64
	VCAllocs           int64
	LinkTraversals     int64
}

// pendingFlit/pendingCredit latch an outgoing payload until its pipeline
// delay (crossbar_delay for flits, credit_delay for credits) elapses,
// ahead of actually landing on the port's Channel (spec.md §4.2 ST).
type pendingFlit struct {
	readyCycle int64
	flit       *Flit
}

type pendingCredit struct {
	readyCycle int64
	credit     *Credit
}

// RouterConfig groups the per-router construction parameters derived
// from Config (spec.md §6).
type RouterConfig struct {
	NumVCs          int
	VCBufSize       int
	RoutingDelay    int
	CrossbarDelay   int
	CreditDelay     int
	Speculative     bool
	HoldSwitch      bool
	InternalSpeedup int
	// VCArbiter/SWArbiter name the arbiter kind ("round_robin" or
	// "matrix") backing VA and SA respectively (spec.md §6 vc_allocator /
	// sw_allocator) — these are independent knobs; a deployment can run
	// matrix-arbitrated VA over round-robin SA or vice versa.
	VCArbiter string
	SWArbiter string
	// InputSpeedup/OutputSpeedup widen SA to accept more than one
	// winning VC per real input/output port per cycle (spec.md §4.2 SA).
	InputSpeedup  int
	OutputSpeedup int
	// AllocIters bounds the iterative re-allocation passes VA and SA run
	// within a single cycle (spec.md §6 alloc_iters).
	AllocIters int
	InputFirst bool
}

// NewRouter builds a Router with numVCs*numPorts input buffers and
// matching output BufferStates, wired to no neighbors yet (Network's
// wireMesh fills in neighbors and downstream capacities).
func NewRouter(id RouterID, net *Network, rc RouterConfig, policy PowerGatingPolicy, routeFn RoutingFunc, thresholds PowerGateThresholds, logger *logrus.Logger) *Router {
	r := &Router{
		id:              id,
		network:         net,
		policy:          policy,
		routeFn:         routeFn,
		thresholds:      thresholds,
		numVCs:          rc.NumVCs,
		vcBufSize:       rc.VCBufSize,
		routingDelay:    rc.RoutingDelay,
		crossbarDelay:   rc.CrossbarDelay,
		creditDelay:     rc.CreditDelay,
		speculative:     rc.Speculative,
		holdSwitch:      rc.HoldSwitch,
		internalSpeedup: rc.InternalSpeedup,
		inputSpeedup:    rc.InputSpeedup,
		outputSpeedup:   rc.OutputSpeedup,
		allocIters:      rc.AllocIters,
		logger:          logger,
	}
	if r.internalSpeedup < 1 {
		r.internalSpeedup = 1
	}
	if r.inputSpeedup < 1 {
		r.inputSpeedup = 1
	}
	if r.outputSpeedup < 1 {
		r.outputSpeedup = 1
	}
	if r.allocIters < 1 {
		r.allocIters = 1
	}
	for p := Port(0); p < numPorts; p++ {
		r.neighbors[p] = NoNeighbor
		r.inputs[p] = NewBuffer(rc.NumVCs, rc.VCBufSize)
		r.outputBufStates[p] = NewBufferState(rc.NumVCs, rc.VCBufSize)
		r.vcPick[p] = NewRoundRobinArbiter(rc.NumVCs)
		r.vcAllocWait[p] = make([]int, rc.NumVCs)
		r.routeReadyAt[p] = make([]int64, rc.NumVCs)
	}
	dim := int(numPorts) * rc.NumVCs
	r.vaAlloc = NewSeparableAllocator(dim, dim, rc.VCArbiter, rc.InputFirst)
	r.saAlloc = NewSeparableAllocator(int(numPorts)*r.inputSpeedup, int(numPorts)*r.outputSpeedup, rc.SWArbiter, rc.InputFirst)
	r.ringPick = NewRoundRobinArbiter(int(numPorts) * rc.NumVCs)
	return r
}

// ID returns this router's arena index.
func (r *Router) ID() RouterID { return r.id }

// PowerState returns the router's current power-gating lifecycle state.
func (r *Router) PowerState() PowerState { return r.pg.State }

// Stats returns this router's accumulated event counters for energy
// reporting.
func (r *Router) Stats() RouterEventCounts { return r.stats }

// CyclesOff returns the cumulative cycles this router has spent in
// power_off across the whole run, used by energy.Model to prorate leakage
// power against active time.
func (r *Router) CyclesOff() int64 { return r.pg.cumulativeOffCycles }

func (r *Router) flatIn(port Port, vc int) int  { return int(port)*r.numVCs + vc }
func (r *Router) flatOut(port Port, vc int) int { return int(port)*r.numVCs + vc }
func (r *Router) unflat(idx int) (Port, int)    { return Port(idx / r.numVCs), idx % r.numVCs }

// sendHandshake enqueues hs for delivery on port p's handshake channel,
// flushed at WriteOutputs.
func (r *Router) sendHandshake(p Port, hs *Handshake) {
	r.pendingHandshakeOut[p] = append(r.pendingHandshakeOut[p], hs)
}

// ReadInputs latches arrivals from every incoming channel into this
// router's input buffers, credit trackers, and handshake inbox (spec.md
// §2 phase 1).
func (r *Router) ReadInputs() {
	r.ringBusy = false
	for p := Port(0); p < numPorts; p++ {
		if r.neighbors[p] == NoNeighbor {
			continue
		}
		link := r.network.linkInto(r.id, p)

		if f, ok := link.flit.Receive(); ok {
			r.receiveFlit(p, f)
		}
		if c, ok := link.credit.Receive(); ok {
			r.receiveCredit(p, c)
			FreeCredit(c)
		}
		if hs, ok := link.handshake.Receive(); ok {
			r.receiveHandshake(p, hs)
			FreeHandshake(hs)
		}
	}
	if r.policy.UsesBypassRing() {
		if in := r.network.ringLinkInto(r.id); in != nil {
			if f, ok := in.Receive(); ok {
				r.receiveRingFlit(f)
			}
		}
	}
}

func (r *Router) receiveFlit(p Port, f *Flit) {
	r.activityThisCycle = true
	if r.pg.State == StatePowerOff && r.flyOverEligible(p) {
		r.flyOver(p, f)
		return
	}
	vc := f.VC
	buf := r.inputs[p].VCs[vc]
	if buf.State == VCIdle {
		buf.State = VCRouting
		r.routeReadyAt[p][vc] = r.network.Cycle + int64(r.routingDelay)
	}
	buf.Push(f)
	r.stats.BufferWrites++
}

func (r *Router) receiveCredit(p Port, c *Credit) {
	bs := r.outputBufStates[p]
	for _, vc := range c.VCs {
		bs.FreeSlot(vc)
	}
}

// flyOverEligible reports whether port p's axis keeps a live fly-over
// datapath while this router is power_off (spec.md §4.3).
func (r *Router) flyOverEligible(p Port) bool {
	if p == Local {
		return false
	}
	for _, axis := range r.policy.FlyOverAxes() {
		if p.axis() == axis {
			return true
		}
	}
	return false
}

// flyOver forwards f straight through to the opposite port with one
// cycle of latency, charging it against a bypass VC for credit purposes
// (spec.md §4.3 FLOV fly-over).
func (r *Router) flyOver(inPort Port, f *Flit) {
	out := inPort.Opposite()
	if r.neighbors[out] == NoNeighbor {
		panic("netsim: fly-over with no opposite neighbor at router")
	}
	f.BypassVC = f.VC
	r.pendingFlitOut[out] = append(r.pendingFlitOut[out], pendingFlit{
		readyCycle: r.network.Cycle + 1,
		flit:       f,
	})
	if r.logger != nil {
		r.logger.Debugf("%d | node%d | Bypassing flit %d (packet %d) via fly-over %s→%s",
			r.network.Cycle, r.id, f.ID, f.PacketID, inPort, out)
	}
	cr := NewCredit()
	cr.Add(f.VC)
	r.pendingCreditOut[inPort] = append(r.pendingCreditOut[inPort], pendingCredit{
		readyCycle: r.network.Cycle + 1,
		credit:     cr,
	})
}

// receiveRingFlit handles a flit arriving on the NoRD bypass ring: ejected
// here if this router is its destination, otherwise relayed to the next
// ring hop regardless of this router's own power state — parked routers
// have no other datapath, so ring pass-through is their only legitimate
// per-cycle activity (spec.md §4.3 NoRD).
func (r *Router) receiveRingFlit(f *Flit) {
	r.activityThisCycle = true
	if RouterID(f.Dest) == r.id {
		f.ArrivedAt = r.network.Cycle
		r.ejectQueue = append(r.ejectQueue, f)
		return
	}
	r.forwardRing(f)
}

// forwardRing latches f onto this router's single ring-output slot for
// delivery to the ring-successor one cycle later (spec.md §4.3), claiming
// the slot for the rest of this cycle.
func (r *Router) forwardRing(f *Flit) {
	r.ringBusy = true
	r.pendingRingOut = append(r.pendingRingOut, pendingFlit{
		readyCycle: r.network.Cycle + 1,
		flit:       f,
	})
}

// receiveHandshake applies the common handshake-classification logic
// shared by every power-gating scheme (spec.md §4.4); scheme-specific
// fly-over/escape behavior is driven by PowerGatingPolicy elsewhere.
func (r *Router) receiveHandshake(p Port, hs *Handshake) {
	if hs.SrcStateSet {
		r.neighborStates[p] = hs.SrcState
	}
	if hs.LogicalNeighborSet {
		r.logicalNeighbor[p] = hs.LogicalNeighbor
		r.logicalNeighborSet[p] = true
	}
	if hs.IsDrainRequest() {
		done := r.hasNoTrafficToward(p)
		reply := NewHandshake()
		reply.ID = r.nextHandshakeID()
		reply.Origin = r.id
		reply.DrainDone = done
		r.sendHandshake(p, reply)
		r.pg.pendingDrainReply[p] = !done
		return
	}
	if hs.DrainDone {
		r.pg.drainAcks[p] = true
	}
	if hs.IsWakeupRequest() {
		r.WakeUp()
	}
}

// hasNoTrafficToward reports whether this router has no in-flight flit
// destined out through port p — the drain_done precondition (spec.md
// §4.4).
func (r *Router) hasNoTrafficToward(p Port) bool {
	for _, vc := range r.inputs[p].VCs {
		if !vc.Empty() {
			return false
		}
	}
	for vc := 0; vc < r.numVCs; vc++ {
		if _, _, ok := r.outputBufStates[p].ReservedBy(vc); ok {
			// Any live reservation against output p means traffic is
			// still flowing toward p.
			return false
		}
	}
	return true
}

// Evaluate runs the router pipeline: RC/VA/SA/ST, InternalStep once per
// internal_speedup slot (spec.md §2 phase 3, §4.2).
func (r *Router) Evaluate() {
	for i := 0; i < r.internalSpeedup; i++ {
		r.internalStep()
	}
}

func (r *Router) internalStep() {
	// A power_off router provides no RC/VA/SA datapath (spec.md §4.3
	// "off routers provide no datapath"); its only legitimate per-cycle
	// work is forwarding bypass-ring traffic and fly-over, both of which
	// run outside this gate (fly-over in receiveFlit, ring relay below).
	if r.pg.State != StatePowerOff {
		r.stepRouteComputation()
		r.stepVA()
		r.stepSA()
	}
	r.stepRingForward()
}

// stepRouteComputation advances VCRouting VCs whose routing delay has
// elapsed into VCVCAlloc with a computed route.
func (r *Router) stepRouteComputation() {
	for p := Port(0); p < numPorts; p++ {
		for vc, v := range r.inputs[p].VCs {
			if v.State != VCRouting || v.Empty() {
				continue
			}
			if r.network.Cycle < r.routeReadyAt[p][vc] {
				continue
			}
			head := v.Front()
			hops := r.computeRoute(head)
			if r.policy.UsesBypassRing() && !r.meshRouteFeasible(hops) {
				// The mesh-side next hop is off and this scheme has no
				// escape table — only the bypass ring (spec.md §4.3
				// NoRD) can still make progress for this packet.
				v.State = VCRingBound
				v.Route = nil
				r.vcAllocWait[p][vc] = 0
				continue
			}
			v.Route = hops
			v.State = VCVCAlloc
			r.vcAllocWait[p][vc] = 0
		}
	}
}

// meshRouteFeasible reports whether any hop in hops leads somewhere still
// reachable over the mesh datapath: Local (ejection) or an on-router
// neighbor. False means the mesh-side route is currently a dead end —
// either an escape table (RP) or the bypass ring (NoRD) must take over.
func (r *Router) meshRouteFeasible(hops []RouteHop) bool {
	for _, h := range hops {
		if h.Port == Local || r.network.isOnRouter(r.neighbors[h.Port]) {
			return true
		}
	}
	return false
}

// computeRoute dispatches to the configured routing function, or to the
// RP escape table when the policy uses escape routing and the primary
// route is currently infeasible (next hop off/unreachable).
func (r *Router) computeRoute(f *Flit) []RouteHop {
	hops := r.routeFn(r, f)
	if r.policy.UsesEscapeRouting() && r.network.RoutingTable != nil && !r.meshRouteFeasible(hops) {
		numVCs := r.network.Config.VCsPerClass
		vcStart := f.Class * numVCs
		vcEnd := vcStart + numVCs - 1
		if esc, ok := r.network.RoutingTable.EscapeHop(r.id, RouterID(f.Dest), vcStart, vcEnd); ok {
			return []RouteHop{esc}
		}
	}
	return hops
}

// stepVA runs virtual-channel allocation across every requesting
// (port,vc) using the router's flattened SeparableAllocator (spec.md
// §4.2 VA).
func (r *Router) stepVA() {
	dim := int(numPorts) * r.numVCs
	requests := make([][]bool, dim)
	for i := range requests {
		requests[i] = make([]bool, dim)
	}
	for p := Port(0); p < numPorts; p++ {
		for vc, v := range r.inputs[p].VCs {
			if v.State != VCVCAlloc || v.Empty() {
				continue
			}
			in := r.flatIn(p, vc)
			for _, hop := range v.Route {
				if hop.Port == Local {
					requests[in][r.flatOut(Local, 0)] = true
					continue
				}
				if r.neighbors[hop.Port] == NoNeighbor {
					continue
				}
				bs := r.outputBufStates[hop.Port]
				for ovc := hop.VCStart; ovc <= hop.VCEnd && ovc < r.numVCs; ovc++ {
					if bs.IsAvailableFor(ovc) && !bs.IsFullFor(ovc) {
						requests[in][r.flatOut(hop.Port, ovc)] = true
					}
				}
			}
		}
	}

	grants := r.vaAlloc.AllocateIterated(requests, r.allocIters)
	granted := make(map[int]bool, len(grants))
	for _, g := range grants {
		granted[g.Input] = true
		inPort, inVC := r.unflat(g.Input)
		outPort, outVC := r.unflat(g.Output)
		v := r.inputs[inPort].VCs[inVC]
		if outPort != Local {
			r.outputBufStates[outPort].Reserve(outVC, inPort, inVC)
		}
		v.OutputPort = outPort
		v.OutputVC = outVC
		v.State = VCActive
		r.vcAllocWait[inPort][inVC] = 0
		r.stats.VCAllocs++
		if r.logger != nil {
			r.logger.Debugf("%d | node%d | Selected output VC %d for packet %d on port %s",
				r.network.Cycle, r.id, outVC, v.Front().PacketID, outPort)
		}
	}

	// Failure watchdog (spec.md §4.2): heads that keep losing VA are
	// reset to routing after routing_deadlock_timeout cycles.
	for p := Port(0); p < numPorts; p++ {
		for vc, v := range r.inputs[p].VCs {
			if v.State != VCVCAlloc || v.Empty() {
				continue
			}
			in := r.flatIn(p, vc)
			if granted[in] {
				continue
			}
			r.vcAllocWait[p][vc]++
			if int64(r.vcAllocWait[p][vc]) > r.network.Config.RoutingDeadlockTimeout {
				v.State = VCRouting
				v.Route = nil
				r.routeReadyAt[p][vc] = r.network.Cycle + int64(r.routingDelay)
				r.vcAllocWait[p][vc] = 0
				if r.logger != nil {
					r.logger.Warnf("%d | node%d | routing-deadlock watchdog: re-routing (port %s, vc %d)",
						r.network.Cycle, r.id, p, vc)
				}
			}
		}
	}
}

// stepSA runs switch allocation: held connections bypass arbitration
// entirely (spec.md §4.2 Switch hold); the rest compete through a
// per-port VC picker feeding the port-level SeparableAllocator, expanded
// by input_speedup/output_speedup virtual slots per real port (spec.md
// §4.2: "one flit per (input, input_speedup_slot) and per (output,
// output_speedup_slot)").
func (r *Router) stepSA() {
	heldVC := [numPorts]int{}
	isHeld := [numPorts]bool{}

	numIn := int(numPorts) * r.inputSpeedup
	numOut := int(numPorts) * r.outputSpeedup
	requests := make([][]bool, numIn)
	for i := range requests {
		requests[i] = make([]bool, numOut)
	}
	// slotVC[p*inputSpeedup+s]: the winning VC occupying virtual input
	// slot s at real port p, or -1 if that slot found no winner.
	slotVC := make([]int, numIn)
	for i := range slotVC {
		slotVC[i] = -1
	}

	for p := Port(0); p < numPorts; p++ {
		// Prefer a held switch connection if one exists at this port.
		for vc, v := range r.inputs[p].VCs {
			if v.Held && !v.Empty() {
				heldVC[p] = vc
				isHeld[p] = true
				break
			}
		}
		if isHeld[p] {
			continue
		}
		// NOTE on "speculative" (spec.md §4.2): with RC/VA/SA run
		// sequentially within one internalStep rather than in parallel
		// pipeline stages, any VC still in VCVCAlloc by the time SA runs
		// has already failed VA this same cycle, so there is nothing
		// meaningful left to speculate on — SA here only considers
		// VCActive VCs. The Config.Speculative flag is accepted and
		// threaded through for parity with spec.md §6 but has no
		// additional effect versus non-speculative under this
		// within-cycle ordering; see DESIGN.md.
		reqVCs := make([]bool, r.numVCs)
		for vc, v := range r.inputs[p].VCs {
			if v.Empty() || v.State != VCActive {
				continue
			}
			if r.outputBufStates[v.OutputPort].IsFullFor(v.OutputVC) {
				continue
			}
			reqVCs[vc] = true
		}
		// Gather up to input_speedup distinct winning VCs at this port,
		// masking each winner out before re-arbitrating for the next slot.
		for slot := 0; slot < r.inputSpeedup; slot++ {
			winner, ok := r.vcPick[p].Arbitrate(reqVCs)
			if !ok {
				break
			}
			r.vcPick[p].Update(winner)
			reqVCs[winner] = false
			vIn := int(p)*r.inputSpeedup + slot
			slotVC[vIn] = winner
			po := int(r.inputs[p].VCs[winner].OutputPort)
			for ovSlot := 0; ovSlot < r.outputSpeedup; ovSlot++ {
				requests[vIn][po*r.outputSpeedup+ovSlot] = true
			}
		}
	}

	grants := r.saAlloc.AllocateIterated(requests, r.allocIters)
	for _, g := range grants {
		p := Port(g.Input / r.inputSpeedup)
		vc := slotVC[g.Input]
		if vc < 0 {
			continue
		}
		r.switchTraverse(p, vc)
	}
	for p := Port(0); p < numPorts; p++ {
		if isHeld[p] {
			r.switchTraverse(p, heldVC[p])
		}
	}
}

// stepRingForward drains one flit per cycle from a VCRingBound VC onto the
// bypass ring (spec.md §4.3 NoRD), fairly arbitrating among every
// (port,vc) contending to inject this cycle. Self-guards on ringBusy so
// it never collides with a pass-through relay already claimed by
// receiveRingFlit this cycle, and is safe to call on networks with no
// ring at all.
func (r *Router) stepRingForward() {
	if !r.policy.UsesBypassRing() || r.ringBusy {
		return
	}
	dim := int(numPorts) * r.numVCs
	reqs := make([]bool, dim)
	any := false
	for p := Port(0); p < numPorts; p++ {
		for vc, v := range r.inputs[p].VCs {
			if v.State == VCRingBound && !v.Empty() {
				reqs[r.flatIn(p, vc)] = true
				any = true
			}
		}
	}
	if !any {
		return
	}
	winner, ok := r.ringPick.Arbitrate(reqs)
	if !ok {
		return
	}
	r.ringPick.Update(winner)
	p, vc := r.unflat(winner)
	v := r.inputs[p].VCs[vc]
	f := v.Pop()
	r.stats.BufferReads++
	f.RoutedAt = r.network.Cycle
	if f.Tail {
		v.State = VCIdle
		v.Route = nil
	}
	r.forwardRing(f)
	cr := NewCredit()
	cr.Add(vc)
	r.pendingCreditOut[p] = append(r.pendingCreditOut[p], pendingCredit{
		readyCycle: r.network.Cycle + int64(r.creditDelay),
		credit:     cr,
	})
}

// switchTraverse performs ST for the winning flit at (inPort, vc):
// dequeues it, schedules it onto the output channel after
// crossbar_delay, establishes or releases switch hold, and schedules the
// upstream credit after credit_delay (spec.md §4.2 ST).
func (r *Router) switchTraverse(inPort Port, vc int) {
	v := r.inputs[inPort].VCs[vc]
	f := v.Pop()
	r.stats.BufferReads++
	r.stats.SwitchAllocs++
	r.stats.CrossbarTraversals++

	outPort := v.OutputPort
	outVC := v.OutputVC

	f.VC = outVC
	f.RoutedAt = r.network.Cycle

	if outPort == Local {
		f.ArrivedAt = r.network.Cycle
		r.ejectQueue = append(r.ejectQueue, f)
	} else {
		r.outputBufStates[outPort].SentFlit(outVC)
		r.pendingFlitOut[outPort] = append(r.pendingFlitOut[outPort], pendingFlit{
			readyCycle: r.network.Cycle + int64(r.crossbarDelay),
			flit:       f,
		})
		if r.logger != nil {
			r.logger.Debugf("%d | node%d | Enqueuing flit %d (packet %d) to %s vc %d",
				r.network.Cycle, r.id, f.ID, f.PacketID, outPort, outVC)
		}
	}

	if f.Tail {
		v.Held = false
		if outPort != Local {
			r.outputBufStates[outPort].MarkTailSent(outVC)
		}
		v.State = VCIdle
		v.OutputVC = NoVC
		v.Route = nil
	} else if r.holdSwitch {
		v.Held = true
	}

	cr := NewCredit()
	cr.Add(vc)
	r.pendingCreditOut[inPort] = append(r.pendingCreditOut[inPort], pendingCredit{
		readyCycle: r.network.Cycle + int64(r.creditDelay),
		credit:     cr,
	})
}

// WriteOutputs flushes every pending flit/credit/handshake whose
// crossbar_delay/credit_delay has elapsed onto its channel (spec.md §2
// phase 4, §4.2 ST). Entries not yet ready are retained for a later
// cycle. It does not advance channels — Network.writeOutputsAndAdvance
// advances each physical channel exactly once, after every
// router's WriteOutputs has run, since a channel is written by one
// router and read by another and must not be advanced twice.
func (r *Router) WriteOutputs() {
	now := r.network.Cycle
	for p := Port(0); p < numPorts; p++ {
		if r.neighbors[p] == NoNeighbor {
			continue
		}
		link := r.network.linkOutOf(r.id, p)

		pending := r.pendingFlitOut[p]
		kept := pending[:0]
		for _, pf := range pending {
			if pf.readyCycle <= now {
				link.flit.Send(pf.flit)
				r.stats.LinkTraversals++
			} else {
				kept = append(kept, pf)
			}
		}
		r.pendingFlitOut[p] = kept

		pendingC := r.pendingCreditOut[p]
		keptC := pendingC[:0]
		for _, pc := range pendingC {
			if pc.readyCycle <= now {
				link.credit.Send(pc.credit)
			} else {
				keptC = append(keptC, pc)
			}
		}
		r.pendingCreditOut[p] = keptC

		for _, hs := range r.pendingHandshakeOut[p] {
			link.handshake.Send(hs)
		}
		r.pendingHandshakeOut[p] = r.pendingHandshakeOut[p][:0]
	}

	if ring := r.network.ringLinkOutOf(r.id); ring != nil {
		pending := r.pendingRingOut
		kept := pending[:0]
		for _, pf := range pending {
			if pf.readyCycle <= now {
				ring.Send(pf.flit)
				r.stats.LinkTraversals++
			} else {
				kept = append(kept, pf)
			}
		}
		r.pendingRingOut = kept
	}
}

// Inject places a newly-generated flit into the Local input VC vc,
// modeling the zero-latency tile→router injection link (spec.md §2 data
// flow). Returns false if the VC buffer is full.
func (r *Router) Inject(f *Flit, vc int) bool {
	buf := r.inputs[Local].VCs[vc]
	if len(buf.queue) >= r.vcBufSize {
		return false
	}
	f.VC = vc
	r.activityThisCycle = true
	if buf.State == VCIdle {
		buf.State = VCRouting
		r.routeReadyAt[Local][vc] = r.network.Cycle + int64(r.routingDelay)
	}
	buf.Push(f)
	return true
}

// Eject pops one arrived flit from the ejection queue, if any.
func (r *Router) Eject() (*Flit, bool) {
	if len(r.ejectQueue) == 0 {
		return nil, false
	}
	f := r.ejectQueue[0]
	r.ejectQueue = r.ejectQueue[1:]
	return f, true
}
