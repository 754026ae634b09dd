package netsim

import "testing"

func TestHandshake_IsStateAdvertisement(t *testing.T) {
	h := &Handshake{SrcStateSet: true, SrcState: StatePowerOn}
	if !h.IsStateAdvertisement() {
		t.Error("expected a bare state advertisement to be recognized")
	}
	if h.IsDrainRequest() || h.IsWakeupRequest() {
		t.Error("a state advertisement must not also read as a drain or wake-up request")
	}
}

func TestHandshake_IsDrainRequest(t *testing.T) {
	h := &Handshake{NewStateSet: true, NewState: StateDraining}
	if !h.IsDrainRequest() {
		t.Error("expected a NewState=draining handshake to be a drain request")
	}
	if h.IsStateAdvertisement() {
		t.Error("a drain request should not also read as a bare state advertisement")
	}
}

func TestHandshake_IsWakeupRequest(t *testing.T) {
	h := &Handshake{WakeUp: true}
	if !h.IsWakeupRequest() {
		t.Error("expected WakeUp=true to be recognized as a wake-up request")
	}
	if h.IsStateAdvertisement() {
		t.Error("a wake-up request should not also read as a bare state advertisement")
	}
}

func TestHandshakePool_ResetsBetweenUses(t *testing.T) {
	h := NewHandshake()
	h.Origin = 5
	h.WakeUp = true
	FreeHandshake(h)

	h2 := NewHandshake()
	if h2.Origin != 0 || h2.WakeUp {
		t.Errorf("expected a freed-then-reused handshake to be zeroed, got %+v", h2)
	}
}
