package netsim

import (
	"math/bits"
	"math/rand"
)

// Pattern draws a destination endpoint for a newly generated packet
// (spec.md §1 Non-goals: traffic pattern generators are an external
// collaborator; this is the simulator's own minimal stand-in, not the
// specification's hard core).
type Pattern interface {
	Name() string
	Destination(src, k int, rng *rand.Rand) int
}

// NewPattern resolves the named traffic pattern (spec.md §6 pattern).
// Panics on an unrecognized name — a configuration-time choice.
func NewPattern(name string) Pattern {
	switch name {
	case "", "uniform":
		return uniformPattern{}
	case "tornado":
		return tornadoPattern{}
	case "bit_complement":
		return bitComplementPattern{}
	case "shuffle":
		return shufflePattern{}
	default:
		panic("netsim: unknown traffic pattern " + name)
	}
}

type uniformPattern struct{}

func (uniformPattern) Name() string { return "uniform" }
func (uniformPattern) Destination(src, k int, rng *rand.Rand) int { return rng.Intn(k * k) }

// tornadoPattern sends every node's traffic floor(k/2) hops away on each
// axis — the classic adversarial pattern for dimension-order routing.
type tornadoPattern struct{}

func (tornadoPattern) Name() string { return "tornado" }
func (tornadoPattern) Destination(src, k int, _ *rand.Rand) int {
	x, y := MeshCoord(src, k)
	return MeshID((x+k/2)%k, (y+k/2)%k, k)
}

type bitComplementPattern struct{}

func (bitComplementPattern) Name() string { return "bit_complement" }
func (bitComplementPattern) Destination(src, k int, _ *rand.Rand) int {
	x, y := MeshCoord(src, k)
	return MeshID(k-1-x, k-1-y, k)
}

// shufflePattern rotates the node index's bit pattern by one position, the
// discrete analogue of the classic perfect-shuffle permutation.
type shufflePattern struct{}

func (shufflePattern) Name() string { return "shuffle" }
func (shufflePattern) Destination(src, k int, _ *rand.Rand) int {
	n := k * k
	width := bits.Len(uint(n - 1))
	if width == 0 {
		return src
	}
	v := uint(src)
	mask := uint(n - 1)
	rotated := ((v << 1) | (v >> (width - 1))) & mask
	return int(rotated)
}
