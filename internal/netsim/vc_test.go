package netsim

import "testing"

func TestVC_PushFrontPopFIFO(t *testing.T) {
	v := NewVC(4)
	if !v.Empty() {
		t.Fatal("fresh VC should be empty")
	}
	f1, f2 := NewFlit(), NewFlit()
	f1.ID, f2.ID = 1, 2
	v.Push(f1)
	v.Push(f2)
	if v.Len() != 2 {
		t.Fatalf("expected length 2, got %d", v.Len())
	}
	if v.Front().ID != 1 {
		t.Errorf("expected head-of-line ID 1, got %d", v.Front().ID)
	}
	got := v.Pop()
	if got.ID != 1 {
		t.Errorf("expected FIFO pop of ID 1, got %d", got.ID)
	}
	if v.Len() != 1 {
		t.Errorf("expected length 1 after one pop, got %d", v.Len())
	}
}

func TestVC_PopEmptyPanics(t *testing.T) {
	v := NewVC(4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic popping an empty VC")
		}
	}()
	v.Pop()
}

func TestVC_NewVCHasNoOutputVC(t *testing.T) {
	v := NewVC(4)
	if v.OutputVC != NoVC {
		t.Errorf("expected a fresh VC's OutputVC to be NoVC, got %d", v.OutputVC)
	}
	if v.State != VCIdle {
		t.Errorf("expected a fresh VC to start idle, got %v", v.State)
	}
}

func TestBuffer_HasRequestedVCCount(t *testing.T) {
	b := NewBuffer(4, 8)
	if len(b.VCs) != 4 {
		t.Fatalf("expected 4 VCs, got %d", len(b.VCs))
	}
	for _, vc := range b.VCs {
		if !vc.Empty() {
			t.Error("every fresh VC in a new Buffer should be empty")
		}
	}
}

func TestVCState_String(t *testing.T) {
	cases := map[VCState]string{
		VCIdle:    "idle",
		VCRouting: "routing",
		VCVCAlloc: "vc_alloc",
		VCActive:  "active",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("state %d: got %q, want %q", state, got, want)
		}
	}
}
