// Package netsim implements a cycle-accurate simulator of a power-gated
// on-chip mesh interconnect: the router pipeline, credit-based flow
// control, and the NoRD/FLOV/Router-Parking power-gating schemes that
// share it.
package netsim

// FlitType classifies the traffic a flit belongs to, used by read/write
// traffic patterns to size packets differently per type.
type FlitType int

const (
	FlitAny FlitType = iota
	FlitReadRequest
	FlitWriteRequest
	FlitReadReply
	FlitWriteReply
)

func (t FlitType) String() string {
	switch t {
	case FlitReadRequest:
		return "READ_REQUEST"
	case FlitWriteRequest:
		return "WRITE_REQUEST"
	case FlitReadReply:
		return "READ_REPLY"
	case FlitWriteReply:
		return "WRITE_REPLY"
	default:
		return "ANY"
	}
}

// RouteHop is one candidate output the routing function offers for a
// flit: an output port with an admissible VC range and a tie-break
// priority.
type RouteHop struct {
	Port     Port
	VCStart  int
	VCEnd    int
	Priority int
}

// NoVC marks a flit's VC/BypassVC as not yet assigned.
const NoVC = -1

// Flit is the smallest unit transferred on a Channel. Every packet is a
// contiguous run of flits sharing PacketID; the first has Head=true, the
// last Tail=true. Flits are pooled (see flitPool) and reset when NewFlit
// takes them from the pool.
type Flit struct {
	ID         int64
	PacketID   int64
	Class      int
	Subnetwork int

	Src  int
	Dest int

	CreatedAt  int64
	InjectedAt int64
	RoutedAt   int64
	ArrivedAt  int64

	Priority int
	Head     bool
	Tail     bool

	// VC is the input-side virtual channel this flit occupies at its
	// current router. Set when the flit is latched into a Buffer.
	VC int

	// BypassVC is set only while a flit transits a powered-off router's
	// fly-over datapath (spec: FLOV fly-over). It names the VC the flit
	// is charged against at the next on-router for credit purposes.
	BypassVC int

	Type FlitType

	// Watch is a per-flit tracing mark carried with the flit; no router
	// or traffic-manager code reads it, so it does not change logging.
	Watch bool
}

func resetFlit(f *Flit) {
	*f = Flit{VC: NoVC, BypassVC: NoVC}
}

var flitPool = NewPool(resetFlit)

// NewFlit returns a pooled Flit ready for population: every field zeroed
// except VC and BypassVC, which are NoVC.
func NewFlit() *Flit { return flitPool.Get(resetFlit) }

// FreeFlit returns f to the pool. f must not be referenced afterward.
func FreeFlit(f *Flit) { flitPool.Free(f) }
