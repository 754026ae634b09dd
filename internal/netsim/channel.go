package netsim

// Channel is a fixed-latency FIFO of depth Latency: Send enqueues an item
// for arrival Latency cycles later, Receive returns the item (if any)
// whose latency has elapsed this cycle. Advance shifts the pipeline by
// one slot and must be called exactly once per cycle, during
// WriteOutputs (spec.md §4.1, §5 ordering guarantees).
//
// Channel is generic over the payload: flits, credits, and handshakes
// each ride their own Channel[T] instance between a pair of routers.
type Channel[T any] struct {
	Latency int
	slots   []T
	full    []bool

	// pending/pendingFull stage this cycle's Send until the following
	// Advance commits it into the tail slot. Staging (rather than
	// writing the tail slot directly) keeps the delivered latency at
	// exactly Latency cycles: Advance performs the pipeline shift and
	// the tail commit as one atomic step, so a freshly sent item still
	// needs Latency-1 further Advance calls to reach the head, instead
	// of getting a free shift from the same Advance that shifted
	// everything already in flight.
	pending     T
	pendingFull bool
}

// NewChannel creates a Channel with the given fixed latency. latency must
// be >= 1; a latency of 1 means an item sent this cycle arrives next
// cycle.
func NewChannel[T any](latency int) *Channel[T] {
	if latency < 1 {
		panic("netsim: Channel latency must be >= 1")
	}
	return &Channel[T]{
		Latency: latency,
		slots:   make([]T, latency),
		full:    make([]bool, latency),
	}
}

// Send enqueues x for arrival after Latency cycles. It stages the item;
// the next Advance call commits it into the pipeline's tail slot.
func (c *Channel[T]) Send(x T) {
	if c.pendingFull {
		panic("netsim: Channel.Send into an already-occupied slot (latency must be >= output rate)")
	}
	c.pending = x
	c.pendingFull = true
}

// Receive returns the item at the head of the pipeline (the one sent
// Latency cycles ago), if any, and clears that slot. ok is false if
// nothing has arrived this cycle.
func (c *Channel[T]) Receive() (x T, ok bool) {
	if !c.full[0] {
		return x, false
	}
	x = c.slots[0]
	var zero T
	c.slots[0] = zero
	c.full[0] = false
	return x, true
}

// Advance shifts every slot one position toward the head, making room at
// the tail for the next Send. Must be called once per cycle in
// WriteOutputs, after all Sends for the cycle are issued and before the
// next cycle's Receives.
func (c *Channel[T]) Advance() {
	for i := 0; i < c.Latency-1; i++ {
		c.slots[i] = c.slots[i+1]
		c.full[i] = c.full[i+1]
	}
	last := c.Latency - 1
	c.slots[last] = c.pending
	c.full[last] = c.pendingFull
	var zero T
	c.pending = zero
	c.pendingFull = false
}

// HasArrival reports whether Receive would currently return an item.
func (c *Channel[T]) HasArrival() bool { return c.full[0] }
