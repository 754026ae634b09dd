package netsim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run. Two runs
// with the same SimulationKey and identical Config MUST produce bit-for-bit
// identical results — including which routers are auto-selected off and
// which destinations synthetic traffic draws.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey { return SimulationKey(seed) }

const (
	// SubsystemTraffic seeds synthetic traffic pattern destination draws.
	SubsystemTraffic = "traffic"
	// SubsystemPowerGate seeds the off_cores/off_routers auto-configuration
	// percentile draw (spec.md §9 open question (b): replaces the
	// hard-coded off-percentile tables with a seeded generator).
	SubsystemPowerGate = "powergate"
	// SubsystemRPRepair seeds aggressive-RP's connectivity repair pick
	// among candidate edge routers (spec.md §9 open question (c)).
	SubsystemRPRepair = "rp_repair"
)

// SubsystemRouter returns the subsystem name ("router_<id>") for a
// per-router RNG stream. No router code draws from such a stream.
func SubsystemRouter(id int) string { return fmt.Sprintf("router_%d", id) }

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, derived from a single master seed: masterSeed XOR
// fnv1a64(subsystemName). Not thread-safe; the simulator is single-threaded
// by design (spec.md §5).
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, subsystems: make(map[string]*rand.Rand)}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same cached instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey { return p.key }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
