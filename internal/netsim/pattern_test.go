package netsim

import (
	"math/rand"
	"testing"
)

func TestNewPattern_Known(t *testing.T) {
	for _, name := range []string{"", "uniform", "tornado", "bit_complement", "shuffle"} {
		if p := NewPattern(name); p == nil {
			t.Errorf("NewPattern(%q) returned nil", name)
		}
	}
}

func TestNewPattern_Unknown_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown pattern name")
		}
	}()
	NewPattern("not_a_pattern")
}

func TestTornadoPattern_IsDeterministicOffset(t *testing.T) {
	k := 4
	p := tornadoPattern{}
	rng := rand.New(rand.NewSource(1))
	for src := 0; src < k*k; src++ {
		dest := p.Destination(src, k, rng)
		x, y := MeshCoord(src, k)
		wantX, wantY := (x+k/2)%k, (y+k/2)%k
		if dest != MeshID(wantX, wantY, k) {
			t.Errorf("src=%d: got dest %d, want %d", src, dest, MeshID(wantX, wantY, k))
		}
	}
}

func TestBitComplementPattern_IsInvolution(t *testing.T) {
	k := 4
	p := bitComplementPattern{}
	rng := rand.New(rand.NewSource(1))
	for src := 0; src < k*k; src++ {
		dest := p.Destination(src, k, rng)
		back := p.Destination(dest, k, rng)
		if back != src {
			t.Errorf("bit_complement should be its own inverse: src=%d -> dest=%d -> %d", src, dest, back)
		}
	}
}

func TestUniformPattern_StaysInRange(t *testing.T) {
	k := 4
	p := uniformPattern{}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		dest := p.Destination(0, k, rng)
		if dest < 0 || dest >= k*k {
			t.Errorf("uniform destination %d out of range [0,%d)", dest, k*k)
		}
	}
}

func TestShufflePattern_StaysInRange(t *testing.T) {
	k := 4
	p := shufflePattern{}
	for src := 0; src < k*k; src++ {
		dest := p.Destination(src, k, nil)
		if dest < 0 || dest >= k*k {
			t.Errorf("shuffle destination %d out of range [0,%d)", dest, k*k)
		}
	}
}
