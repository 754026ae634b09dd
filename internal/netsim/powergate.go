package netsim

import "github.com/sirupsen/logrus"

// PowerState is a router's power-gating lifecycle state (spec.md §4.3).
type PowerState int

const (
	StatePowerOn PowerState = iota
	StateDraining
	StatePowerOff
	StateWakeup
)

func (s PowerState) String() string {
	switch s {
	case StatePowerOn:
		return "power_on"
	case StateDraining:
		return "draining"
	case StatePowerOff:
		return "power_off"
	case StateWakeup:
		return "wakeup"
	default:
		return "unknown"
	}
}

// PowerGateThresholds groups the named cycle-count parameters that drive
// the state machine (spec.md §4.3, §6). All are in cycles.
type PowerGateThresholds struct {
	IdleThreshold    int64
	DrainThreshold   int64
	BETThreshold     int64 // break-even time, minimum wakeup duration
	WakeupThreshold  int64
}

// PowerGateState holds one router's power-gating state-machine fields.
// Embedded in Router rather than duplicated per variant (spec.md §9:
// "single Router state holding a power_gating_policy").
type PowerGateState struct {
	State PowerState

	idleTimer   int64 // cycles since last VA grant/allocation activity
	drainTimer  int64 // cycles spent in draining
	offTimer    int64 // cycles spent in power_off
	wakeupTimer int64 // cycles spent in wakeup

	// drainAcks[p] is true once the neighbor on port p has acknowledged
	// this router's drain request (drain_done=true).
	drainAcks [numPorts]bool

	// pendingDrainReply[p] is true when a drain request arrived on port p
	// while this router still had traffic toward p, so the drain_done=true
	// reply could not be sent yet. retryPendingDrainReplies re-checks these
	// every cycle and sends the reply once traffic toward p has cleared.
	pendingDrainReply [numPorts]bool

	wakeupRequested bool

	// handshakeSeq is this router's monotonically increasing handshake id.
	handshakeSeq int64

	// cumulativeOffCycles totals every cycle spent in power_off across the
	// whole run, used to prorate leakage power in energy.Model.
	cumulativeOffCycles int64
}

// allNeighborsDrained reports whether every live (attached) neighbor has
// acknowledged the drain request.
func (r *Router) allNeighborsDrained() bool {
	for p := Port(0); p < numPorts; p++ {
		if r.neighbors[p] == NoNeighbor {
			continue
		}
		if !r.pg.drainAcks[p] {
			return false
		}
	}
	return true
}

// retryPendingDrainReplies re-sends drain_done to any neighbor whose drain
// request couldn't be satisfied at the cycle it arrived (spec.md §4.4): a
// busy neighbor's traffic toward p eventually drains, and the requester must
// not be left waiting on a reply that was only ever computed once. Runs every
// cycle regardless of this router's own power state, since answering a
// neighbor's drain request is a protocol obligation, not a local-state one.
func (r *Router) retryPendingDrainReplies() {
	for p := Port(0); p < numPorts; p++ {
		if !r.pg.pendingDrainReply[p] {
			continue
		}
		if !r.hasNoTrafficToward(p) {
			continue
		}
		reply := NewHandshake()
		reply.ID = r.nextHandshakeID()
		reply.Origin = r.id
		reply.DrainDone = true
		r.sendHandshake(p, reply)
		r.pg.pendingDrainReply[p] = false
	}
}

// allVCsIdle reports whether every input VC at this router is idle and
// empty — a precondition for completing drain (spec.md §8 P7).
func (r *Router) allVCsIdle() bool {
	for _, buf := range r.inputs {
		for _, vc := range buf.VCs {
			if vc.State != VCIdle || !vc.Empty() {
				return false
			}
		}
	}
	return true
}

// noOutstandingCredits reports whether every downstream VC this router
// sends into has zero occupancy, i.e. every flit sent downstream has had
// its credit returned — the other drain precondition.
func (r *Router) noOutstandingCredits() bool {
	for _, bs := range r.outputBufStates {
		for vc := 0; vc < bs.NumVCs(); vc++ {
			if bs.Occupancy(vc) != 0 {
				return false
			}
		}
	}
	return true
}

// PowerStateEvaluate steps the power-gating state machine one cycle
// (spec.md §2 phase 2, §4.3). It is called once per cycle before
// Evaluate, so transitions this cycle are visible to routing/allocation
// later the same cycle (spec.md §5 ordering).
func (r *Router) PowerStateEvaluate() {
	r.retryPendingDrainReplies()
	switch r.pg.State {
	case StatePowerOn:
		r.evaluatePowerOn()
	case StateDraining:
		r.evaluateDraining()
	case StatePowerOff:
		r.evaluatePowerOff()
	case StateWakeup:
		r.evaluateWakeup()
	}
}

func (r *Router) evaluatePowerOn() {
	if r.activityThisCycle {
		r.pg.idleTimer = 0
	} else {
		r.pg.idleTimer++
	}
	r.activityThisCycle = false

	if r.pg.idleTimer >= r.thresholds.IdleThreshold && r.policy.AllowGating(r) {
		r.beginDraining()
	}
}

func (r *Router) beginDraining() {
	r.transition(StateDraining)
	r.pg.drainTimer = 0
	for p := range r.pg.drainAcks {
		r.pg.drainAcks[p] = false
	}
	for p := Port(0); p < numPorts; p++ {
		if r.neighbors[p] == NoNeighbor {
			continue
		}
		hs := NewHandshake()
		hs.ID = r.nextHandshakeID()
		hs.Origin = r.id
		hs.NewState = StateDraining
		hs.NewStateSet = true
		r.sendHandshake(p, hs)
	}
}

func (r *Router) evaluateDraining() {
	r.pg.drainTimer++
	if r.pg.wakeupRequested || r.pg.drainTimer > r.thresholds.DrainThreshold {
		r.pg.wakeupRequested = false
		r.transition(StatePowerOn)
		return
	}
	if r.allNeighborsDrained() && r.allVCsIdle() && r.noOutstandingCredits() {
		r.transition(StatePowerOff)
		r.pg.offTimer = 0
	}
}

func (r *Router) evaluatePowerOff() {
	r.pg.offTimer++
	r.pg.cumulativeOffCycles++
	if r.pg.wakeupRequested {
		r.pg.wakeupRequested = false
		r.transition(StateWakeup)
		r.pg.wakeupTimer = 0
	}
}

func (r *Router) evaluateWakeup() {
	r.pg.wakeupTimer++
	if r.pg.wakeupTimer >= r.thresholds.BETThreshold {
		r.transition(StatePowerOn)
		r.notifyNeighborsAwake()
	}
}

// WakeUp requests an off or draining router wake. Origin may be the
// local traffic manager's wakeup monitor or an incoming handshake
// (spec.md §4.3 power_off → wakeup).
func (r *Router) WakeUp() {
	switch r.pg.State {
	case StatePowerOff:
		r.pg.wakeupRequested = true
	case StateDraining:
		r.pg.wakeupRequested = true
	}
}

func (r *Router) transition(to PowerState) {
	from := r.pg.State
	r.pg.State = to
	if r.logger != nil {
		lvl := logrus.InfoLevel
		r.logger.WithFields(logrus.Fields{
			"cycle":  r.network.Cycle,
			"router": r.id,
		}).Logf(lvl, "%d | router%d | %s→%s", r.network.Cycle, r.id, from, to)
	}
}

func (r *Router) nextHandshakeID() int64 {
	r.pg.handshakeSeq++
	return r.pg.handshakeSeq
}

// notifyNeighborsAwake advertises the new power_on state to every
// neighbor so they may resume normal routing to this router.
func (r *Router) notifyNeighborsAwake() {
	for p := Port(0); p < numPorts; p++ {
		if r.neighbors[p] == NoNeighbor {
			continue
		}
		hs := NewHandshake()
		hs.ID = r.nextHandshakeID()
		hs.Origin = r.id
		hs.SrcState = StatePowerOn
		hs.SrcStateSet = true
		r.sendHandshake(p, hs)
	}
}
