package netsim

// Handshake is the neighbor-to-neighbor control message that coordinates
// power-gating (spec.md §4.4). A single struct carries every message
// kind; the kind is implied by which optional fields are set, matching
// the style of booksim2/src/handshake.cpp this repo is grounded on.
type Handshake struct {
	ID int64

	// SrcState/SrcStateSet: state advertisement of the sender's current
	// power state.
	SrcState    PowerState
	SrcStateSet bool

	// NewState/NewStateSet: drain request — sender is moving (or asking
	// the recipient to move) to NewState.
	NewState    PowerState
	NewStateSet bool

	// DrainDone answers a drain request: true once the sender has no
	// in-flight flit destined through the router it is draining toward.
	DrainDone bool

	// WakeUp requests the recipient, if off, transition to wakeup.
	WakeUp bool

	// Origin names the router that originated this handshake; every
	// handshake the router code builds carries its sender's own id.
	Origin RouterID

	// LogicalNeighbor/LogicalNeighborSet (FLOV only): announces the
	// nearest non-off router along this axis, so upstream routers know
	// whom to address when routing over a stretch of parked routers.
	LogicalNeighbor    RouterID
	LogicalNeighborSet bool
}

func resetHandshake(h *Handshake) { *h = Handshake{} }

var handshakePool = NewPool(resetHandshake)

// NewHandshake returns a pooled, zeroed Handshake.
func NewHandshake() *Handshake { return handshakePool.Get(resetHandshake) }

// FreeHandshake returns h to the pool. h must not be referenced afterward.
func FreeHandshake(h *Handshake) { handshakePool.Free(h) }

// IsStateAdvertisement reports whether h carries only a state
// advertisement (spec.md §4.4).
func (h *Handshake) IsStateAdvertisement() bool {
	return h.SrcStateSet && !h.NewStateSet && !h.WakeUp
}

// IsDrainRequest reports whether h is a drain request.
func (h *Handshake) IsDrainRequest() bool {
	return h.NewStateSet && h.NewState == StateDraining
}

// IsWakeupRequest reports whether h is a wake-up request.
func (h *Handshake) IsWakeupRequest() bool { return h.WakeUp }
