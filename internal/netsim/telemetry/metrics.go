// Package telemetry exposes a simulation run's live power-gating and
// throughput figures as Prometheus metrics, in the same global-collector,
// opt-in style as the churn telemetry this repo's power-gating metrics are
// grounded on (internal/ratelimiter/telemetry/churn in the reference
// pack). Disabled by default; no-op until Enable is called.
package telemetry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	modEnabled atomic.Bool

	flitsAcceptedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "noc_flits_accepted_total",
		Help: "Total flits ejected at their destination, by traffic class",
	}, []string{"class"})

	packetLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "noc_packet_latency_cycles",
		Help:    "Packet head-to-tail injection-to-ejection latency in cycles, by class",
		Buckets: []float64{4, 8, 16, 32, 64, 128, 256, 512, 1024},
	}, []string{"class"})

	routersPoweredOff = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "noc_routers_powered_off",
		Help: "Number of routers currently in power_off state",
	})

	routerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "noc_router_power_transitions_total",
		Help: "Total power-gating state transitions, by destination state",
	}, []string{"state"})

	deadlockWatchdogTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "noc_deadlock_watchdog_fires_total",
		Help: "Total times the traffic manager's deadlock watchdog fired",
	})

	energyTotalPJ = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "noc_energy_total_pj",
		Help: "Cumulative estimated energy in picojoules across the run so far",
	})
)

func init() {
	prometheus.MustRegister(flitsAcceptedTotal, packetLatency, routersPoweredOff,
		routerTransitionsTotal, deadlockWatchdogTotal, energyTotalPJ)
}

// Enable turns on metric recording and, if addr is non-empty, starts a
// dedicated HTTP server serving /metrics.
func Enable(addr string) {
	modEnabled.Store(true)
	if addr != "" {
		startMetricsEndpoint(addr)
	}
}

// Enabled reports whether telemetry recording is active.
func Enabled() bool { return modEnabled.Load() }

// ObserveAccepted records one flit's ejection for class.
func ObserveAccepted(class string) {
	if !modEnabled.Load() {
		return
	}
	flitsAcceptedTotal.WithLabelValues(class).Inc()
}

// ObserveLatency records one packet's end-to-end latency in cycles.
func ObserveLatency(class string, cycles int64) {
	if !modEnabled.Load() {
		return
	}
	packetLatency.WithLabelValues(class).Observe(float64(cycles))
}

// SetRoutersPoweredOff sets the current count of power_off routers.
func SetRoutersPoweredOff(n int) {
	if !modEnabled.Load() {
		return
	}
	routersPoweredOff.Set(float64(n))
}

// ObserveTransition records a power-gating state transition to state.
func ObserveTransition(state string) {
	if !modEnabled.Load() {
		return
	}
	routerTransitionsTotal.WithLabelValues(state).Inc()
}

// ObserveDeadlockWatchdog records one deadlock-watchdog firing.
func ObserveDeadlockWatchdog() {
	if !modEnabled.Load() {
		return
	}
	deadlockWatchdogTotal.Inc()
}

// SetEnergyTotal sets the cumulative energy total in picojoules.
func SetEnergyTotal(pj float64) {
	if !modEnabled.Load() {
		return
	}
	energyTotalPJ.Set(pj)
}

func startMetricsEndpoint(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
