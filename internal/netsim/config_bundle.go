package netsim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigBundle is the YAML-loadable form of Config (spec.md §6: "a
// configuration map"). Field names follow the spec's snake_case keys;
// LoadConfigBundle uses strict decoding so a typo'd key is a load error
// rather than a silently-ignored default.
type ConfigBundle struct {
	K       int `yaml:"k"`
	N       int `yaml:"n"`
	Classes int `yaml:"classes"`

	VCsPerClass int `yaml:"vcs_per_class"`
	VCBufSize   int `yaml:"vc_buf_size"`

	RoutingFunction string `yaml:"routing_function"`
	RoutingDelay    int    `yaml:"routing_delay"`

	VCAllocator         string `yaml:"vc_allocator"`
	SWAllocator         string `yaml:"sw_allocator"`
	AllocIters          int    `yaml:"alloc_iters"`
	Speculative         bool   `yaml:"speculative"`
	HoldSwitchForPacket bool   `yaml:"hold_switch_for_packet"`

	CrossbarDelay   int `yaml:"crossbar_delay"`
	CreditDelay     int `yaml:"credit_delay"`
	InputSpeedup    int `yaml:"input_speedup"`
	OutputSpeedup   int `yaml:"output_speedup"`
	InternalSpeedup int `yaml:"internal_speedup"`

	RoutingDeadlockTimeout int64 `yaml:"routing_deadlock_timeout"`
	DeadlockWarnTimeout    int64 `yaml:"deadlock_warn_timeout"`

	PowergateType       string `yaml:"powergate_type"`
	PowergateAutoConfig bool   `yaml:"powergate_auto_config"`
	PowergatePercentile int    `yaml:"powergate_percentile"`
	PowergateSeed       int64  `yaml:"powergate_seed"`
	OffCores            []int  `yaml:"off_cores"`
	OffRouters          []int  `yaml:"off_routers"`
	FabricManager       int    `yaml:"fabric_manager"`

	IdleThreshold   int64 `yaml:"idle_threshold"`
	DrainThreshold  int64 `yaml:"drain_threshold"`
	BETThreshold    int64 `yaml:"bet_threshold"`
	WakeupThreshold int64 `yaml:"wakeup_threshold"`

	NoRDPerformanceCentricWakeupThreshold int64 `yaml:"nord_performance_centric_wakeup_threshold"`
	NoRDPowerCentricWakeupThreshold       int64 `yaml:"nord_power_centric_wakeup_threshold"`
	NoRDWakeupMonitorEpoch                int64 `yaml:"nord_wakeup_monitor_epoch"`

	WatchPowerGatingRouters []int `yaml:"watch_power_gating_routers"`

	SimType        string  `yaml:"sim_type"`
	Pattern        string  `yaml:"pattern"`
	PacketSize     int     `yaml:"packet_size"`
	PacketSizeRate float64 `yaml:"packet_size_rate"`
	UseReadWrite   bool    `yaml:"use_read_write"`
	InjectionRate  float64 `yaml:"injection_rate"`
	Seed           int64   `yaml:"seed"`

	Energy EnergyBundle `yaml:"energy"`
}

// EnergyBundle is the YAML form of EnergyCoefficients.
type EnergyBundle struct {
	BufferReadPJ               float64 `yaml:"buffer_read_pj"`
	BufferWritePJ              float64 `yaml:"buffer_write_pj"`
	CrossbarPJ                 float64 `yaml:"crossbar_pj"`
	SwitchAllocPJ              float64 `yaml:"switch_alloc_pj"`
	VCAllocPJ                  float64 `yaml:"vc_alloc_pj"`
	LinkPJPerFlit              float64 `yaml:"link_pj_per_flit"`
	LeakagePJPerCyclePerRouter float64 `yaml:"leakage_pj_per_cycle_per_router"`
}

// LoadConfigBundle reads and strictly parses a YAML configuration file,
// rejecting unrecognized keys the same way the configuration loader this
// repo's bundle loading is patterned on does.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netsim: reading config: %w", err)
	}
	bundle := defaultBundle()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("netsim: parsing config: %w", err)
	}
	return &bundle, nil
}

func defaultBundle() ConfigBundle {
	d := DefaultConfig()
	return ConfigBundle{
		K:                      d.K,
		N:                      d.N,
		Classes:                d.Classes,
		VCsPerClass:            d.VCsPerClass,
		VCBufSize:              d.VCBufSize,
		RoutingFunction:        d.RoutingFunction,
		RoutingDelay:           d.RoutingDelay,
		VCAllocator:            d.VCAllocator,
		SWAllocator:            d.SWAllocator,
		AllocIters:             d.AllocIters,
		CrossbarDelay:          d.CrossbarDelay,
		CreditDelay:            d.CreditDelay,
		InputSpeedup:           d.InputSpeedup,
		OutputSpeedup:          d.OutputSpeedup,
		InternalSpeedup:        d.InternalSpeedup,
		RoutingDeadlockTimeout: d.RoutingDeadlockTimeout,
		DeadlockWarnTimeout:    d.DeadlockWarnTimeout,
		PowergateType:          string(d.PowergateType),
		IdleThreshold:          d.IdleThreshold,
		DrainThreshold:         d.DrainThreshold,
		BETThreshold:           d.BETThreshold,
		WakeupThreshold:        d.WakeupThreshold,
		NoRDWakeupMonitorEpoch: d.NoRDWakeupMonitorEpoch,
		SimType:                d.SimType,
		Pattern:                d.Pattern,
		PacketSize:             d.PacketSize,
		PacketSizeRate:         d.PacketSizeRate,
	}
}

// Config converts the bundle to a Config by copying its fields; it does
// not call Config.Validate.
func (b *ConfigBundle) Config() Config {
	return Config{
		K:                       b.K,
		N:                       b.N,
		Classes:                 b.Classes,
		VCsPerClass:             b.VCsPerClass,
		VCBufSize:               b.VCBufSize,
		RoutingFunction:         b.RoutingFunction,
		RoutingDelay:            b.RoutingDelay,
		VCAllocator:             b.VCAllocator,
		SWAllocator:             b.SWAllocator,
		AllocIters:              b.AllocIters,
		Speculative:             b.Speculative,
		HoldSwitchForPacket:     b.HoldSwitchForPacket,
		CrossbarDelay:           b.CrossbarDelay,
		CreditDelay:             b.CreditDelay,
		InputSpeedup:            b.InputSpeedup,
		OutputSpeedup:           b.OutputSpeedup,
		InternalSpeedup:         b.InternalSpeedup,
		RoutingDeadlockTimeout:  b.RoutingDeadlockTimeout,
		DeadlockWarnTimeout:     b.DeadlockWarnTimeout,
		PowergateType:           PowerGatingKind(b.PowergateType),
		PowergateAutoConfig:     b.PowergateAutoConfig,
		PowergatePercentile:     b.PowergatePercentile,
		PowergateSeed:           b.PowergateSeed,
		OffCores:                b.OffCores,
		OffRouters:              b.OffRouters,
		FabricManager:           b.FabricManager,
		IdleThreshold:           b.IdleThreshold,
		DrainThreshold:          b.DrainThreshold,
		BETThreshold:            b.BETThreshold,
		WakeupThreshold:         b.WakeupThreshold,
		NoRDPerformanceCentricWakeupThreshold: b.NoRDPerformanceCentricWakeupThreshold,
		NoRDPowerCentricWakeupThreshold:       b.NoRDPowerCentricWakeupThreshold,
		NoRDWakeupMonitorEpoch:                b.NoRDWakeupMonitorEpoch,
		WatchPowerGatingRouters:               b.WatchPowerGatingRouters,
		SimType:                               b.SimType,
		Pattern:                               b.Pattern,
		PacketSize:                            b.PacketSize,
		PacketSizeRate:                        b.PacketSizeRate,
		UseReadWrite:                          b.UseReadWrite,
		InjectionRate:                         b.InjectionRate,
		Seed:                                  b.Seed,
		Energy: EnergyCoefficients{
			BufferReadPJ:               b.Energy.BufferReadPJ,
			BufferWritePJ:              b.Energy.BufferWritePJ,
			CrossbarPJ:                 b.Energy.CrossbarPJ,
			SwitchAllocPJ:              b.Energy.SwitchAllocPJ,
			VCAllocPJ:                  b.Energy.VCAllocPJ,
			LinkPJPerFlit:              b.Energy.LinkPJPerFlit,
			LeakagePJPerCyclePerRouter: b.Energy.LeakagePJPerCyclePerRouter,
		},
	}
}
