package netsim

import (
	"math/rand"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/noc-pgsim/noc-pgsim/internal/netsim/telemetry"
	"github.com/noc-pgsim/noc-pgsim/internal/netsim/traffic"
)

// TrafficManager owns everything outside the router pipeline that spec.md
// §4.5 assigns to it: per-(node,class) injection queues, packet
// generation, ejection/retirement, the deadlock watchdog, and the NoRD/
// FLOV wake-up monitor. It drives Network's phase helpers directly rather
// than duplicating their loops, injecting before Network.evaluateAll so
// freshly generated flits are visible to this cycle's RC/VA/SA, and
// draining ejections after it so flits switched to Local this cycle are
// retired the same cycle they land (grounded on
// nordtrafficmanager.cpp's _Step, which interleaves injection and
// ejection around the router step the same way).
type TrafficManager struct {
	net    *Network
	cfg    Config
	logger *logrus.Logger

	pattern Pattern
	sizeCfg traffic.SizeConfig

	// onCore reports whether node n's attached compute tile is active.
	// Distinct from a router's power-gating state (spec.md §3): a core can
	// be parked independently of its router.
	onCore []bool

	qtime     [][]int64    // qtime[node][class]: earliest cycle eligible to inject
	pending   [][][]*Flit  // pending[node][class]: flits of the in-progress packet awaiting injection
	packetSeq [][]int64    // packetSeq[node][class]: running packet counter, passed to traffic.NextKind as seq

	nextPacketID int64
	nextFlitID   int64

	latencies map[int][]int64     // per class, cycles from InjectedAt to ArrivedAt
	accepted  map[[2]int]int64    // [src][dest] -> flits ejected

	// deadlockTimer counts consecutive cycles with at least one
	// non-idle VC but zero flits ejected anywhere (spec.md §7 kind 3).
	deadlockTimer int64

	// wakeupMonitorVCRequests[off router] accumulates blocked-VC signals
	// between NoRDWakeupMonitorEpoch boundaries (spec.md §4.3 NoRD
	// wake-up monitor).
	wakeupMonitorVCRequests map[RouterID]int64
}

// NewTrafficManager builds a TrafficManager for net. offCores marks cores
// parked for the run's duration (spec.md §6 off_cores) — independent of
// which routers are off.
func NewTrafficManager(net *Network, cfg Config, offCores []int, logger *logrus.Logger) *TrafficManager {
	n := net.NumRouters()
	tm := &TrafficManager{
		net:     net,
		cfg:     cfg,
		logger:  logger,
		pattern: NewPattern(cfg.Pattern),
		sizeCfg: traffic.SizeConfig{
			Sizes:            []int{cfg.PacketSize},
			Rates:            []int{1},
			UseReadWrite:     cfg.UseReadWrite,
			ReadRequestSize:  1,
			WriteRequestSize: cfg.PacketSize,
			ReadReplySize:    cfg.PacketSize,
			WriteReplySize:   1,
		},
		onCore:                  make([]bool, n),
		qtime:                   make([][]int64, n),
		pending:                 make([][][]*Flit, n),
		packetSeq:               make([][]int64, n),
		latencies:               make(map[int][]int64),
		accepted:                make(map[[2]int]int64),
		wakeupMonitorVCRequests: make(map[RouterID]int64),
	}
	for i := range tm.onCore {
		tm.onCore[i] = true
	}
	for _, id := range offCores {
		if id >= 0 && id < n {
			tm.onCore[id] = false
		}
	}
	for i := 0; i < n; i++ {
		tm.qtime[i] = make([]int64, cfg.Classes)
		tm.pending[i] = make([][]*Flit, cfg.Classes)
		tm.packetSeq[i] = make([]int64, cfg.Classes)
	}
	return tm
}

// Step advances the traffic manager and the underlying Network by one
// cycle, in the phase order spec.md §2/§4.5 require: inputs and
// power-state evaluation, then injection (so this cycle's RC/VA/SA see
// newly-queued flits), then the router pipeline itself, then ejection
// and output writeback.
func (tm *TrafficManager) Step() {
	tm.net.readAllInputs()
	tm.net.evaluatePowerStateAll()

	tm.runDeadlockWatchdog()
	tm.runWakeupMonitor()
	tm.injectSelection()

	tm.net.evaluateAll()

	tm.ejectAndRetire()

	tm.net.writeOutputsAndAdvance()

	if telemetry.Enabled() {
		telemetry.SetRoutersPoweredOff(len(tm.net.OffRouterIDs()))
	}
}

// Run steps the traffic manager (and its Network) for the given number
// of cycles.
func (tm *TrafficManager) Run(cycles int64) {
	for i := int64(0); i < cycles; i++ {
		tm.Step()
	}
}

// injectSelection draws fresh packets per (node,class) injection process
// and pushes the head-of-line packet's next flit into the router's Local
// VC when buffer space allows: at most one flit per (node,class) per
// cycle (spec.md §4.5 "inject selection respecting qtime").
func (tm *TrafficManager) injectSelection() {
	rng := tm.net.RNG.ForSubsystem(SubsystemTraffic)
	for node := 0; node < tm.net.NumRouters(); node++ {
		if !tm.onCore[node] {
			continue
		}
		r := tm.net.Router(RouterID(node))
		for class := 0; class < tm.cfg.Classes; class++ {
			if tm.net.Cycle < tm.qtime[node][class] {
				continue
			}
			if len(tm.pending[node][class]) == 0 {
				if !tm.shouldIssue(rng) {
					continue
				}
				tm.generatePacket(node, class, rng)
			}
			queue := tm.pending[node][class]
			if len(queue) == 0 {
				continue
			}
			f := queue[0]
			vc := class * tm.cfg.VCsPerClass
			if !r.Inject(f, vc) {
				continue // buffer full; retry next cycle, qtime unchanged
			}
			f.InjectedAt = tm.net.Cycle
			tm.pending[node][class] = queue[1:]
			tm.qtime[node][class] = tm.net.Cycle + 1
		}
	}
}

// shouldIssue draws a Bernoulli trial against the configured injection
// rate (spec.md §6 injection_rate).
func (tm *TrafficManager) shouldIssue(rng *rand.Rand) bool {
	if tm.cfg.InjectionRate <= 0 {
		return false
	}
	if tm.cfg.InjectionRate >= 1 {
		return true
	}
	return rng.Float64() < tm.cfg.InjectionRate
}

// maxDestinationRedraws bounds the destination-redraw loop below so a
// mesh with every core parked cannot spin forever.
const maxDestinationRedraws = 64

// generatePacket builds one packet's flits and enqueues them, redrawing
// the destination when the pattern lands on a parked core (spec.md §4.3
// NoRD paragraph: destinations are redrawn, or self-looped under
// tornado, until they land on an active core).
func (tm *TrafficManager) generatePacket(node, class int, rng *rand.Rand) {
	dest := tm.pattern.Destination(node, tm.net.MeshK, rng)
	for attempt := 0; !tm.onCore[dest] && attempt < maxDestinationRedraws; attempt++ {
		if tm.pattern.Name() == "tornado" {
			dest = node
			break
		}
		dest = tm.pattern.Destination(node, tm.net.MeshK, rng)
	}

	seq := tm.packetSeq[node][class]
	tm.packetSeq[node][class]++
	kind := traffic.NextKind(seq, readFractionFor(tm.cfg), rng.Float64)
	size := tm.sizeCfg.Size(kind, rng.Intn)
	if size < 1 {
		size = 1
	}

	pid := tm.nextPacketID
	tm.nextPacketID++
	flits := make([]*Flit, size)
	for i := 0; i < size; i++ {
		f := NewFlit()
		f.ID = tm.nextFlitID
		tm.nextFlitID++
		f.PacketID = pid
		f.Class = class
		f.Src = node
		f.Dest = dest
		f.CreatedAt = tm.net.Cycle
		f.Head = i == 0
		f.Tail = i == size-1
		f.Type = kindToFlitType(kind)
		flits[i] = f
	}
	tm.pending[node][class] = append(tm.pending[node][class], flits...)
}

// readFractionFor derives the read/write mix from PacketSizeRate when
// use_read_write is set: it doubles as the fraction of packets that are
// reads (spec.md §6 packet_size_rate), defaulting to an even split.
func readFractionFor(cfg Config) float64 {
	if !cfg.UseReadWrite {
		return 0
	}
	if cfg.PacketSizeRate <= 0 || cfg.PacketSizeRate > 1 {
		return 0.5
	}
	return cfg.PacketSizeRate
}

func kindToFlitType(k traffic.Kind) FlitType {
	switch k {
	case traffic.KindReadRequest:
		return FlitReadRequest
	case traffic.KindWriteRequest:
		return FlitWriteRequest
	case traffic.KindReadReply:
		return FlitReadReply
	case traffic.KindWriteReply:
		return FlitWriteReply
	default:
		return FlitAny
	}
}

// ejectAndRetire drains every router's ejection queue, recording
// latency and acceptance statistics for each arrived flit before
// returning it to the pool.
func (tm *TrafficManager) ejectAndRetire() {
	for id := 0; id < tm.net.NumRouters(); id++ {
		r := tm.net.Router(RouterID(id))
		for {
			f, ok := r.Eject()
			if !ok {
				break
			}
			tm.retire(f)
		}
	}
}

func (tm *TrafficManager) retire(f *Flit) {
	tm.deadlockTimer = 0
	f.ArrivedAt = tm.net.Cycle
	if f.Tail {
		latency := f.ArrivedAt - f.InjectedAt
		tm.latencies[f.Class] = append(tm.latencies[f.Class], latency)
		if telemetry.Enabled() {
			telemetry.ObserveLatency(strconv.Itoa(f.Class), latency)
		}
	}
	tm.accepted[[2]int{f.Src, f.Dest}]++
	if telemetry.Enabled() {
		telemetry.ObserveAccepted(strconv.Itoa(f.Class))
	}
	FreeFlit(f)
}

// runDeadlockWatchdog implements spec.md §7 kind 3: if the network has
// gone deadlock_warn_timeout cycles with in-flight traffic but nothing
// has been ejected anywhere, it logs a warning and resets — the
// simulation continues rather than aborting.
func (tm *TrafficManager) runDeadlockWatchdog() {
	inFlight := false
	for id := 0; id < tm.net.NumRouters(); id++ {
		r := tm.net.Router(RouterID(id))
		for p := Port(0); p < numPorts; p++ {
			buf := r.inputs[p]
			for _, vc := range buf.VCs {
				if vc.State != VCIdle {
					inFlight = true
				}
			}
		}
	}
	if !inFlight {
		tm.deadlockTimer = 0
		return
	}
	tm.deadlockTimer++
	if tm.cfg.DeadlockWarnTimeout > 0 && tm.deadlockTimer >= tm.cfg.DeadlockWarnTimeout {
		if tm.logger != nil {
			tm.logger.WithField("cycle", tm.net.Cycle).Warn("netsim: deadlock watchdog: no progress for deadlock_warn_timeout cycles")
		}
		if telemetry.Enabled() {
			telemetry.ObserveDeadlockWatchdog()
		}
		tm.deadlockTimer = 0
	}
}

// runWakeupMonitor implements the NoRD/FLOV wake-up monitor (spec.md
// §4.3): every NoRDWakeupMonitorEpoch cycles, any powered-off router
// whose on-neighbors have accumulated more blocked-VC requests than its
// wake-up threshold is woken, independent of the ordinary idle/drain/
// wake-up state machine driven by its own traffic.
func (tm *TrafficManager) runWakeupMonitor() {
	if tm.cfg.NoRDWakeupMonitorEpoch <= 0 {
		return
	}
	for _, id := range tm.net.OffRouterIDs() {
		r := tm.net.Router(id)
		if r.PowerState() != StatePowerOff {
			continue
		}
		var requests int64
		for p := Port(0); p < numPorts; p++ {
			nb := r.neighbors[p]
			if nb == NoNeighbor {
				continue
			}
			neighbor := tm.net.Router(nb)
			in := neighbor.inputs[p.Opposite()]
			for _, vc := range in.VCs {
				if !vc.Empty() {
					requests++
				}
			}
		}
		tm.wakeupMonitorVCRequests[id] += requests
	}
	if tm.net.Cycle%tm.cfg.NoRDWakeupMonitorEpoch != 0 {
		return
	}
	threshold := tm.cfg.NoRDPerformanceCentricWakeupThreshold
	if threshold <= 0 {
		threshold = tm.cfg.NoRDPowerCentricWakeupThreshold
	}
	if threshold <= 0 {
		return
	}
	for id, count := range tm.wakeupMonitorVCRequests {
		if count > threshold {
			tm.net.Router(id).WakeUp()
		}
		tm.wakeupMonitorVCRequests[id] = 0
	}
}

// LatencyCycles returns every retired packet's end-to-end latency for
// class, in the order packets were ejected.
func (tm *TrafficManager) LatencyCycles(class int) []int64 { return tm.latencies[class] }

// Accepted returns the total flits ejected with the given (src, dest).
func (tm *TrafficManager) Accepted(src, dest int) int64 { return tm.accepted[[2]int{src, dest}] }
