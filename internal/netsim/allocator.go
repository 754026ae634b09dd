package netsim

// Arbiter picks one winner among a set of indexed requesters for a single
// shared resource (spec.md §4.2 VA/SA). Implementations are round-robin
// or matrix/priority based; both satisfy this interface so the
// SeparableAllocator can be built from either.
type Arbiter interface {
	// Arbitrate returns the winning index among the true entries of
	// requests, or ok=false if none requested.
	Arbitrate(requests []bool) (winner int, ok bool)
	// Update notifies the arbiter that winner was granted, so it can
	// rotate priority away from winner for the next arbitration.
	Update(winner int)
}

// RoundRobinArbiter grants to the first requester at or after a rotating
// offset, then advances the offset past the winner — the common
// round-robin arbiter described in spec.md §4.2.
type RoundRobinArbiter struct {
	n      int
	offset int
}

// NewRoundRobinArbiter creates a round-robin arbiter over n requesters.
func NewRoundRobinArbiter(n int) *RoundRobinArbiter {
	return &RoundRobinArbiter{n: n}
}

func (a *RoundRobinArbiter) Arbitrate(requests []bool) (int, bool) {
	for i := 0; i < a.n; i++ {
		idx := (a.offset + i) % a.n
		if requests[idx] {
			return idx, true
		}
	}
	return 0, false
}

func (a *RoundRobinArbiter) Update(winner int) {
	a.offset = (winner + 1) % a.n
}

// MatrixArbiter keeps an n×n priority matrix: higher[i][j] is true when i
// currently has priority over j. A winner pushes its row's priority to
// the bottom (loses priority over everyone), matching the classic
// wavefront/matrix arbiter supersedes rule.
type MatrixArbiter struct {
	n      int
	higher [][]bool // higher[i][j]: i beats j when both request
}

// NewMatrixArbiter creates a matrix arbiter over n requesters with
// priority i > j for i < j initially (lowest index wins ties first).
func NewMatrixArbiter(n int) *MatrixArbiter {
	m := &MatrixArbiter{n: n, higher: make([][]bool, n)}
	for i := range m.higher {
		m.higher[i] = make([]bool, n)
		for j := range m.higher[i] {
			m.higher[i][j] = i < j
		}
	}
	return m
}

func (a *MatrixArbiter) Arbitrate(requests []bool) (int, bool) {
	best := -1
	for i := 0; i < a.n; i++ {
		if !requests[i] {
			continue
		}
		wins := true
		for j := 0; j < a.n; j++ {
			if i == j || !requests[j] {
				continue
			}
			if !a.higher[i][j] {
				wins = false
				break
			}
		}
		if wins {
			best = i
			break
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// Update applies the supersedes rule: winner loses priority over every
// other requester, and everyone else gains priority over winner.
func (a *MatrixArbiter) Update(winner int) {
	for j := 0; j < a.n; j++ {
		if j == winner {
			continue
		}
		a.higher[winner][j] = false
		a.higher[j][winner] = true
	}
}

// NewArbiter builds the named arbiter kind ("round_robin" or "matrix")
// over n requesters. Panics on an unrecognized kind — arbiter kind is a
// configuration-time choice, validated by Config before routers are
// built.
func NewArbiter(kind string, n int) Arbiter {
	switch kind {
	case "", "round_robin":
		return NewRoundRobinArbiter(n)
	case "matrix":
		return NewMatrixArbiter(n)
	default:
		panic("netsim: unknown arbiter kind " + kind)
	}
}

// SeparableAllocator performs a two-pass separable allocation over an
// inputs×outputs request matrix: first pass has each output arbitrate
// among requesting inputs, second pass has each input arbitrate among
// the outputs that tentatively granted it (or vice versa for
// input-first). This is the VA/SA allocator of spec.md §4.2.
type SeparableAllocator struct {
	numInputs, numOutputs int
	inputFirst            bool
	outputArb             []Arbiter // one per output
	inputArb              []Arbiter // one per input
}

// NewSeparableAllocator builds a separable allocator for the given shape.
// arbKind selects the per-resource arbiter ("round_robin" or "matrix").
// inputFirst selects input-first (grant inputs their top output choice,
// then outputs resolve conflicts) vs output-first ordering.
func NewSeparableAllocator(numInputs, numOutputs int, arbKind string, inputFirst bool) *SeparableAllocator {
	sa := &SeparableAllocator{numInputs: numInputs, numOutputs: numOutputs, inputFirst: inputFirst}
	sa.outputArb = make([]Arbiter, numOutputs)
	for i := range sa.outputArb {
		sa.outputArb[i] = NewArbiter(arbKind, numInputs)
	}
	sa.inputArb = make([]Arbiter, numInputs)
	for i := range sa.inputArb {
		sa.inputArb[i] = NewArbiter(arbKind, numOutputs)
	}
	return sa
}

// Grant is one resolved (input, output) match from Allocate.
type Grant struct {
	Input  int
	Output int
}

// Allocate resolves requests[input][output] into a conflict-free set of
// grants: each input wins at most one output, each output is won by at
// most one input. Matches the input-first/output-first two-pass scheme
// of spec.md §4.2 SA/VA.
func (sa *SeparableAllocator) Allocate(requests [][]bool) []Grant {
	if sa.inputFirst {
		return sa.allocateInputFirst(requests)
	}
	return sa.allocateOutputFirst(requests)
}

func (sa *SeparableAllocator) allocateOutputFirst(requests [][]bool) []Grant {
	// Pass 1: each output picks one requesting input.
	tentative := make([]int, sa.numOutputs) // input index, or -1
	for o := 0; o < sa.numOutputs; o++ {
		col := make([]bool, sa.numInputs)
		for i := 0; i < sa.numInputs; i++ {
			col[i] = requests[i][o]
		}
		winner, ok := sa.outputArb[o].Arbitrate(col)
		if ok {
			tentative[o] = winner
		} else {
			tentative[o] = -1
		}
	}
	// Pass 2: each input picks one output among those that tentatively chose it.
	return sa.resolveInputs(tentative)
}

func (sa *SeparableAllocator) allocateInputFirst(requests [][]bool) []Grant {
	// Pass 1: each input picks one requested output.
	tentative := make([]int, sa.numInputs) // output index, or -1
	for i := 0; i < sa.numInputs; i++ {
		winner, ok := sa.inputArb[i].Arbitrate(requests[i])
		if ok {
			tentative[i] = winner
		} else {
			tentative[i] = -1
		}
	}
	// Pass 2: each output picks one input among those that tentatively chose it.
	reqByOutput := make([][]bool, sa.numOutputs)
	for o := range reqByOutput {
		reqByOutput[o] = make([]bool, sa.numInputs)
	}
	for i, o := range tentative {
		if o >= 0 {
			reqByOutput[o][i] = true
		}
	}
	var grants []Grant
	for o := 0; o < sa.numOutputs; o++ {
		winner, ok := sa.outputArb[o].Arbitrate(reqByOutput[o])
		if !ok {
			continue
		}
		sa.outputArb[o].Update(winner)
		sa.inputArb[winner].Update(o)
		grants = append(grants, Grant{Input: winner, Output: o})
	}
	return grants
}

func (sa *SeparableAllocator) resolveInputs(tentative []int) []Grant {
	reqByInput := make([][]bool, sa.numInputs)
	for i := range reqByInput {
		reqByInput[i] = make([]bool, sa.numOutputs)
	}
	for o, i := range tentative {
		if i >= 0 {
			reqByInput[i][o] = true
		}
	}
	var grants []Grant
	for i := 0; i < sa.numInputs; i++ {
		winner, ok := sa.inputArb[i].Arbitrate(reqByInput[i])
		if !ok {
			continue
		}
		sa.inputArb[i].Update(winner)
		sa.outputArb[winner].Update(i)
		grants = append(grants, Grant{Input: i, Output: winner})
	}
	return grants
}

// AllocateIterated runs Allocate up to iters times, masking out inputs and
// outputs already matched in a prior pass before the next pass runs
// (spec.md §6 alloc_iters) — the classic iSLIP-style iterative separable
// allocation, recovering grants for requesters that lost their first-pass
// arbitration to a conflict that a later pass can resolve differently.
// Stops early once a pass makes no new grants. iters < 1 is treated as 1.
func (sa *SeparableAllocator) AllocateIterated(requests [][]bool, iters int) []Grant {
	if iters < 1 {
		iters = 1
	}
	cur := make([][]bool, len(requests))
	for i, row := range requests {
		cur[i] = append([]bool(nil), row...)
	}
	var combined []Grant
	for pass := 0; pass < iters; pass++ {
		grants := sa.Allocate(cur)
		if len(grants) == 0 {
			break
		}
		combined = append(combined, grants...)
		for _, g := range grants {
			for j := range cur[g.Input] {
				cur[g.Input][j] = false
			}
			for i := range cur {
				cur[i][g.Output] = false
			}
		}
	}
	return combined
}
