package netsim

// Credit carries the set of input-VC indices whose downstream buffer
// slot has just been freed. A VC index never appears in two outstanding
// credits simultaneously (spec.md §3 Credit invariant) — the router that
// emits a credit for a VC does not emit another until that VC frees
// again.
type Credit struct {
	VCs []int
}

func resetCredit(c *Credit) { c.VCs = c.VCs[:0] }

var creditPool = NewPool(resetCredit)

// NewCredit returns a pooled, empty Credit.
func NewCredit() *Credit { return creditPool.Get(resetCredit) }

// FreeCredit returns c to the pool. c must not be referenced afterward.
func FreeCredit(c *Credit) { creditPool.Free(c) }

// Add appends vc to the set of freed VCs carried by this credit.
func (c *Credit) Add(vc int) { c.VCs = append(c.VCs, vc) }
