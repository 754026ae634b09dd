package netsim

import "testing"

func TestPort_String(t *testing.T) {
	cases := map[Port]string{
		North: "north",
		East:  "east",
		South: "south",
		West:  "west",
		Local: "local",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("port %d: got %q, want %q", int(p), got, want)
		}
	}
}

func TestPort_Opposite(t *testing.T) {
	cases := map[Port]Port{
		North: South,
		South: North,
		East:  West,
		West:  East,
	}
	for p, want := range cases {
		if got := p.Opposite(); got != want {
			t.Errorf("opposite of %v: got %v, want %v", p, got, want)
		}
	}
	if Local.Opposite() != Local {
		t.Errorf("expected Local's opposite to be Local, got %v", Local.Opposite())
	}
}

func TestPort_Axis(t *testing.T) {
	if North.axis() != 0 || South.axis() != 0 {
		t.Error("expected North/South to share axis 0")
	}
	if East.axis() != 1 || West.axis() != 1 {
		t.Error("expected East/West to share axis 1")
	}
	if Local.axis() != -1 {
		t.Error("expected Local to have no axis")
	}
}

func TestMeshCoordAndMeshID_RoundTrip(t *testing.T) {
	k := 4
	for id := 0; id < k*k; id++ {
		x, y := MeshCoord(id, k)
		if got := MeshID(x, y, k); got != id {
			t.Errorf("MeshID(MeshCoord(%d)) = %d, want %d", id, got, id)
		}
	}
}

func TestMeshCoord_KnownValues(t *testing.T) {
	x, y := MeshCoord(5, 4) // row-major: id = y*k+x
	if x != 1 || y != 1 {
		t.Errorf("MeshCoord(5,4) = (%d,%d), want (1,1)", x, y)
	}
}
