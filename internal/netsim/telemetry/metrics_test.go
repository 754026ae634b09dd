package telemetry

import "testing"

func TestDisabledByDefault(t *testing.T) {
	if Enabled() {
		t.Skip("telemetry already enabled by an earlier test in this binary")
	}
	// No-ops must not panic while disabled.
	ObserveAccepted("0")
	ObserveLatency("0", 42)
	SetRoutersPoweredOff(3)
	ObserveTransition("draining")
	ObserveDeadlockWatchdog()
	SetEnergyTotal(123.0)
}

func TestEnable_TurnsOnRecording(t *testing.T) {
	Enable("")
	if !Enabled() {
		t.Fatal("expected Enabled() to report true after Enable")
	}
	// Recording with no HTTP server configured must not panic.
	ObserveAccepted("1")
	ObserveLatency("1", 10)
	SetRoutersPoweredOff(0)
	ObserveTransition("power_on")
	ObserveDeadlockWatchdog()
	SetEnergyTotal(0)
}
