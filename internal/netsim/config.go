package netsim

import "fmt"

// Config groups every simulation-wide parameter named by spec.md §6. It is
// the typed, validated form of the configuration map; ConfigBundle (see
// config_bundle.go) loads one of these from YAML the way the teacher's
// PolicyBundle loads policy configuration.
type Config struct {
	// Topology.
	K int // mesh edge length (k-ary 2-D mesh, k*k routers)
	N int // dimensions; fixed at 2 for the mesh topologies this simulator models

	Classes     int
	VCsPerClass int
	VCBufSize   int

	RoutingFunction string
	RoutingDelay    int

	VCAllocator  string
	SWAllocator  string
	AllocIters   int
	Speculative  bool
	HoldSwitchForPacket bool

	CrossbarDelay   int
	CreditDelay     int
	InputSpeedup    int
	OutputSpeedup   int
	InternalSpeedup int

	RoutingDeadlockTimeout int64
	DeadlockWarnTimeout    int64

	// Power gating.
	PowergateType        PowerGatingKind
	PowergateAutoConfig  bool
	PowergatePercentile  int // 0-100
	PowergateSeed        int64
	OffCores             []int
	OffRouters           []int
	FabricManager        int

	IdleThreshold   int64
	DrainThreshold  int64
	BETThreshold    int64
	WakeupThreshold int64

	NoRDPerformanceCentricWakeupThreshold int64
	NoRDPowerCentricWakeupThreshold       int64
	NoRDWakeupMonitorEpoch                int64

	WatchPowerGatingRouters []int

	// Traffic.
	SimType       string
	Pattern       string
	PacketSize    int
	PacketSizeRate float64
	UseReadWrite  bool
	InjectionRate float64
	Seed          int64

	// DSENT-style energy coefficients (spec.md §6: "plus DSENT energy
	// coefficients and leakage numbers"), applied as event-count ×
	// coefficient in energy/energy.go.
	Energy EnergyCoefficients
}

// EnergyCoefficients names the per-event energy constants (in arbitrary
// DSENT-report units) that energy.Model multiplies accumulated event
// counts by (spec.md §4 DSENT energy accounting, grounded on
// booksim2/src/power/dsent_power_module.cpp).
type EnergyCoefficients struct {
	BufferReadPJ    float64
	BufferWritePJ   float64
	CrossbarPJ      float64
	SwitchAllocPJ   float64
	VCAllocPJ       float64
	LinkPJPerFlit   float64
	LeakagePJPerCyclePerRouter float64
}

var (
	validRoutingFunctions = map[string]bool{"": true, "dim_order": true, "xy": true, "adaptive": true}
	validAllocators       = map[string]bool{"": true, "round_robin": true, "matrix": true}
	validPowergateTypes   = map[string]bool{
		"": true, string(PGNoPG): true, string(PGFLOV): true, string(PGRFLOV): true,
		string(PGGFLOV): true, string(PGNoFLOV): true, string(PGRPA): true, string(PGRPC): true,
		string(PGNoRD): true,
	}
	validSimTypes = map[string]bool{"": true, "synthetic": true, "trace": true}
	validPatterns = map[string]bool{"": true, "uniform": true, "tornado": true, "bit_complement": true, "shuffle": true}
)

// IsValidRoutingFunction reports whether name is recognized.
func IsValidRoutingFunction(name string) bool { return validRoutingFunctions[name] }

// IsValidAllocator reports whether name is a recognized arbiter kind.
func IsValidAllocator(name string) bool { return validAllocators[name] }

// IsValidPowergateType reports whether name is a recognized powergate_type.
func IsValidPowergateType(name string) bool { return validPowergateTypes[name] }

// IsValidSimType reports whether name is a recognized sim_type.
func IsValidSimType(name string) bool { return validSimTypes[name] }

// IsValidPattern reports whether name is a recognized traffic pattern.
func IsValidPattern(name string) bool { return validPatterns[name] }

// DefaultConfig returns a Config with the baseline always-on mesh defaults
// (spec.md §8 boundary: powergate_percentile=0 reduces to a standard mesh).
func DefaultConfig() Config {
	return Config{
		K:                      4,
		N:                      2,
		Classes:                1,
		VCsPerClass:            4,
		VCBufSize:              8,
		RoutingFunction:        "dim_order",
		RoutingDelay:           1,
		VCAllocator:            "round_robin",
		SWAllocator:            "round_robin",
		AllocIters:             1,
		CrossbarDelay:          1,
		CreditDelay:            1,
		InputSpeedup:           1,
		OutputSpeedup:          1,
		InternalSpeedup:        1,
		RoutingDeadlockTimeout: 300,
		DeadlockWarnTimeout:    1000,
		PowergateType:          PGNoPG,
		IdleThreshold:          100,
		DrainThreshold:         50,
		BETThreshold:           50,
		WakeupThreshold:        10,
		NoRDWakeupMonitorEpoch: 1000,
		SimType:                "synthetic",
		Pattern:                "uniform",
		PacketSize:             1,
		PacketSizeRate:         1.0,
	}
}

// Validate checks parameter ranges and cross-field consistency (spec.md §7
// Configuration error). It does not check off-router connectivity — that
// is RoutingTable's job once the on/off vector is known (spec.md §7 kind 4).
func (c *Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("netsim: config: k must be >= 1, got %d", c.K)
	}
	if c.Classes < 1 {
		return fmt.Errorf("netsim: config: classes must be >= 1, got %d", c.Classes)
	}
	if c.VCsPerClass < 1 {
		return fmt.Errorf("netsim: config: vc count must be >= 1, got %d", c.VCsPerClass)
	}
	if c.VCBufSize < 1 {
		return fmt.Errorf("netsim: config: vc_buf_size must be >= 1, got %d", c.VCBufSize)
	}
	if !IsValidRoutingFunction(c.RoutingFunction) {
		return fmt.Errorf("netsim: config: unknown routing_function %q", c.RoutingFunction)
	}
	if !IsValidAllocator(c.VCAllocator) {
		return fmt.Errorf("netsim: config: unknown vc_allocator %q", c.VCAllocator)
	}
	if !IsValidAllocator(c.SWAllocator) {
		return fmt.Errorf("netsim: config: unknown sw_allocator %q", c.SWAllocator)
	}
	if !IsValidPowergateType(string(c.PowergateType)) {
		return fmt.Errorf("netsim: config: unknown powergate_type %q", c.PowergateType)
	}
	if c.PowergatePercentile < 0 || c.PowergatePercentile > 100 {
		return fmt.Errorf("netsim: config: powergate_percentile must be 0-100, got %d", c.PowergatePercentile)
	}
	if c.PowergatePercentile >= 100 {
		return fmt.Errorf("netsim: config: powergate_percentile too high, no router would remain active")
	}
	if c.FabricManager < 0 || c.FabricManager >= c.K*c.K {
		if c.FabricManager != 0 {
			return fmt.Errorf("netsim: config: fabric_manager %d out of range for %dx%d mesh", c.FabricManager, c.K, c.K)
		}
	}
	if !IsValidSimType(c.SimType) {
		return fmt.Errorf("netsim: config: unknown sim_type %q", c.SimType)
	}
	if !IsValidPattern(c.Pattern) {
		return fmt.Errorf("netsim: config: unknown traffic pattern %q", c.Pattern)
	}
	if c.CrossbarDelay < 1 || c.CreditDelay < 1 {
		return fmt.Errorf("netsim: config: crossbar_delay and credit_delay must be >= 1")
	}
	return nil
}
