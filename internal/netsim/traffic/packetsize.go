// Package traffic sizes generated packets. It is a leaf package — it
// must never import netsim, since netsim's TrafficManager imports it;
// flit kinds are therefore named by a local integer enum rather than
// netsim.FlitType.
package traffic

// Kind classifies a packet the same way netsim.FlitType does, without
// depending on the netsim package.
type Kind int

const (
	KindAny Kind = iota
	KindReadRequest
	KindWriteRequest
	KindReadReply
	KindWriteReply
)

// SizeConfig is the per-class packet-sizing table (spec.md §6
// packet_size/packet_size_rate/use_read_write), grounded on
// nordtrafficmanager.cpp's _packet_size/_packet_size_rate construction
// and its per-class read/write size selection.
type SizeConfig struct {
	// Sizes/Rates: a weighted table of candidate packet sizes in flits,
	// used when UseReadWrite is false. A single entry is a fixed size.
	Sizes []int
	Rates []int

	// UseReadWrite switches to fixed per-kind sizing instead of the
	// Sizes/Rates table (spec.md §6 use_read_write).
	UseReadWrite     bool
	ReadRequestSize  int
	ReadReplySize    int
	WriteRequestSize int
	WriteReplySize   int
}

// Size returns the flit count for the next packet of the given kind.
// draw(n) must return a uniform value in [0,n) and is only consulted
// when the Sizes/Rates table has more than one candidate.
func (c SizeConfig) Size(kind Kind, draw func(n int) int) int {
	if c.UseReadWrite {
		switch kind {
		case KindReadRequest:
			return c.ReadRequestSize
		case KindWriteRequest:
			return c.WriteRequestSize
		case KindReadReply:
			return c.ReadReplySize
		case KindWriteReply:
			return c.WriteReplySize
		}
	}
	switch len(c.Sizes) {
	case 0:
		return 1
	case 1:
		return c.Sizes[0]
	}
	total := 0
	for _, rate := range c.Rates {
		total += rate
	}
	if total <= 0 {
		return c.Sizes[0]
	}
	pick := draw(total)
	acc := 0
	for i, rate := range c.Rates {
		acc += rate
		if pick < acc {
			return c.Sizes[i]
		}
	}
	return c.Sizes[len(c.Sizes)-1]
}

// NextKind picks the kind of the next read-write packet: KindReadRequest
// when draw() falls below readFraction (always at readFraction >= 1),
// otherwise KindWriteRequest (always at readFraction <= 0). It never
// returns a reply kind, and seq (the caller's per-(node,class) packet
// counter) does not affect the result.
func NextKind(seq int64, readFraction float64, draw func() float64) Kind {
	if readFraction <= 0 {
		return KindWriteRequest
	}
	if readFraction >= 1 {
		return KindReadRequest
	}
	if draw() < readFraction {
		return KindReadRequest
	}
	return KindWriteRequest
}
