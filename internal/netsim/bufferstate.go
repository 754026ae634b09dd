package netsim

// reservation names the upstream (input port, input VC) that currently
// owns a downstream output VC, per spec.md §3 BufferState invariants.
type reservation struct {
	held    bool
	inPort  Port
	inVC    int
}

// BufferState is a router's view, per output VC, of the downstream
// router's buffer occupancy and reservation — it is updated by credits
// received from downstream and by local VA grants/ST sends, never by
// directly inspecting the downstream router's state (spec.md §3).
type BufferState struct {
	capacity       []int // per-VC capacity; 1 when downstream router is off (bypass-latch semantics)
	occupancy      []int // per-VC in-flight+buffered count as tracked upstream
	reserved       []reservation
	pendingRelease []bool // tail already sent; release reservation once occupancy drains to 0
}

// NewBufferState creates a BufferState for numVCs output VCs, each with
// the given capacity.
func NewBufferState(numVCs, capacity int) *BufferState {
	bs := &BufferState{
		capacity:       make([]int, numVCs),
		occupancy:      make([]int, numVCs),
		reserved:       make([]reservation, numVCs),
		pendingRelease: make([]bool, numVCs),
	}
	for i := range bs.capacity {
		bs.capacity[i] = capacity
	}
	return bs
}

// SetCapacity sets VC vc's capacity, used to drop capacity to 1 when the
// downstream router parks (bypass-latch semantics, spec.md §3).
func (bs *BufferState) SetCapacity(vc, capacity int) { bs.capacity[vc] = capacity }

// IsAvailableFor reports whether output VC vc is unreserved.
func (bs *BufferState) IsAvailableFor(vc int) bool { return !bs.reserved[vc].held }

// IsFullFor reports whether output VC vc's occupancy has reached capacity.
func (bs *BufferState) IsFullFor(vc int) bool { return bs.occupancy[vc] >= bs.capacity[vc] }

// Reserve grants output VC vc to upstream (inPort, inVC). Panics if vc is
// already reserved — a double reservation is an allocator invariant
// violation (spec.md §8 P3).
func (bs *BufferState) Reserve(vc int, inPort Port, inVC int) {
	if bs.reserved[vc].held {
		panic("netsim: BufferState.Reserve: output VC already reserved")
	}
	bs.reserved[vc] = reservation{held: true, inPort: inPort, inVC: inVC}
}

// Release frees output VC vc's reservation, called when the tail flit is
// sent and the corresponding credit confirms downstream freeing.
func (bs *BufferState) Release(vc int) {
	bs.reserved[vc] = reservation{}
	bs.pendingRelease[vc] = false
}

// MarkTailSent records that the tail flit of the packet holding vc's
// reservation has just been forwarded (ST). The reservation itself is
// not released until occupancy drains to zero via credits (spec.md §5:
// "released only when the tail flit is sent and a credit confirms
// downstream freeing").
func (bs *BufferState) MarkTailSent(vc int) {
	bs.pendingRelease[vc] = true
	if bs.occupancy[vc] == 0 {
		bs.Release(vc)
	}
}

// ReservedBy returns the (input port, input vc) holding vc's reservation.
// ok is false if unreserved.
func (bs *BufferState) ReservedBy(vc int) (port Port, inVC int, ok bool) {
	r := bs.reserved[vc]
	return r.inPort, r.inVC, r.held
}

// SentFlit records that a flit was just sent downstream on vc, occupying
// one more unit of the downstream buffer from this router's point of
// view.
func (bs *BufferState) SentFlit(vc int) { bs.occupancy[vc]++ }

// FreeSlot records that a credit freed one unit of downstream occupancy
// on vc. Panics on underflow — a credit for a VC already at zero
// occupancy indicates a credit-accounting bug (spec.md §8 P5).
func (bs *BufferState) FreeSlot(vc int) {
	if bs.occupancy[vc] <= 0 {
		panic("netsim: BufferState.FreeSlot: credit for VC with zero occupancy")
	}
	bs.occupancy[vc]--
	if bs.occupancy[vc] == 0 && bs.pendingRelease[vc] {
		bs.Release(vc)
	}
}

// Occupancy returns the currently tracked occupancy for vc.
func (bs *BufferState) Occupancy(vc int) int { return bs.occupancy[vc] }

// NumVCs returns how many output VCs this BufferState tracks.
func (bs *BufferState) NumVCs() int { return len(bs.capacity) }
