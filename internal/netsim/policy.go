package netsim

import "fmt"

// PowerGatingKind names the power-gating scheme a Router runs, matching
// the powergate_type configuration values of spec.md §6.
type PowerGatingKind string

const (
	PGNoPG      PowerGatingKind = "no_pg"
	PGFLOV      PowerGatingKind = "flov"
	PGRFLOV     PowerGatingKind = "rflov"
	PGGFLOV     PowerGatingKind = "gflov"
	PGNoFLOV    PowerGatingKind = "noflov"
	PGRPA       PowerGatingKind = "rpa"
	PGRPC       PowerGatingKind = "rpc"
	PGNoRD      PowerGatingKind = "nord"
)

// PowerGatingPolicy is the per-scheme hook set dispatched from the single
// Router state (spec.md §9 REDESIGN NOTES: "single Router state holding a
// power_gating_policy ... dispatch on the variant"). Each scheme
// (FLOV/R-FLOV/G-FLOV/No-FLOV/RP-aggressive/RP-conservative/NoRD/no
// gating) implements this as its own small type, following the teacher's
// RoutingPolicy/AdmissionPolicy interface-plus-factory idiom
// (sim/routing.go, sim/admission.go in the teacher tree).
type PowerGatingPolicy interface {
	Name() string

	// AllowGating reports whether r may begin draining right now. Used
	// by Router.evaluatePowerOn. Always false for the fabric manager and
	// for PGNoPG.
	AllowGating(r *Router) bool

	// FlyOverAxes returns which mesh axes (0 = north/south, 1 =
	// east/west) this router, while power_off, keeps a minimal fly-over
	// datapath for (spec.md §4.3 FLOV fly-over). Empty for schemes with
	// no fly-over datapath (No-FLOV, RP, NoRD): those rely on escape
	// routing or a bypass ring instead.
	FlyOverAxes() []int

	// UsesEscapeRouting reports whether routers running this policy
	// should consult a RoutingTable escape route when the primary route
	// is infeasible (RP only).
	UsesEscapeRouting() bool

	// UsesBypassRing reports whether this policy overlays a NoRD-style
	// bypass ring rather than per-router fly-over or escape routing.
	UsesBypassRing() bool
}

// NewPowerGatingPolicy constructs the named policy. Panics on an
// unrecognized kind — kind is a configuration-time choice validated by
// Config.Validate before any Router is built.
func NewPowerGatingPolicy(kind PowerGatingKind) PowerGatingPolicy {
	switch kind {
	case "", PGNoPG:
		return noPGPolicy{}
	case PGFLOV:
		return flovPolicy{axes: []int{0, 1}, name: string(PGFLOV)}
	case PGGFLOV:
		return flovPolicy{axes: []int{0, 1}, name: string(PGGFLOV)}
	case PGRFLOV:
		return flovPolicy{axes: []int{0}, name: string(PGRFLOV)}
	case PGNoFLOV:
		return flovPolicy{axes: nil, name: string(PGNoFLOV)}
	case PGRPA:
		return rpPolicy{aggressive: true}
	case PGRPC:
		return rpPolicy{aggressive: false}
	case PGNoRD:
		return nordPolicy{}
	default:
		panic(fmt.Sprintf("netsim: unknown powergate_type %q", kind))
	}
}

// noPGPolicy implements PowerGatingPolicy for a plain mesh: no router
// ever gates (spec.md §8 boundary: powergate_percentile=0 reduces to a
// standard always-on mesh).
type noPGPolicy struct{}

func (noPGPolicy) Name() string               { return string(PGNoPG) }
func (noPGPolicy) AllowGating(*Router) bool    { return false }
func (noPGPolicy) FlyOverAxes() []int          { return nil }
func (noPGPolicy) UsesEscapeRouting() bool     { return false }
func (noPGPolicy) UsesBypassRing() bool        { return false }

// flovPolicy implements FLOV, R-FLOV, G-FLOV, and No-FLOV: the
// difference between them is purely which axes keep a fly-over datapath
// alive while power_off (spec.md §4.3).
type flovPolicy struct {
	axes []int
	name string
}

func (p flovPolicy) Name() string { return p.name }
func (p flovPolicy) AllowGating(r *Router) bool {
	return r.id != r.network.FabricManager
}
func (p flovPolicy) FlyOverAxes() []int      { return p.axes }
func (flovPolicy) UsesEscapeRouting() bool   { return false }
func (flovPolicy) UsesBypassRing() bool      { return false }

// rpPolicy implements Router Parking: off routers provide no datapath at
// all; an escape up*/down* table reroutes around them (spec.md §4.3 RP).
// The aggressive/conservative distinction only affects how off_routers
// is derived at auto-configuration time (spec.md §3 Off-configuration),
// not per-cycle router behavior.
type rpPolicy struct {
	aggressive bool
}

func (p rpPolicy) Name() string {
	if p.aggressive {
		return string(PGRPA)
	}
	return string(PGRPC)
}
func (p rpPolicy) AllowGating(r *Router) bool { return r.id != r.network.FabricManager }
func (rpPolicy) FlyOverAxes() []int           { return nil }
func (rpPolicy) UsesEscapeRouting() bool      { return true }
func (rpPolicy) UsesBypassRing() bool         { return false }

// nordPolicy implements NoRD: parked routers park completely; a
// dedicated bypass ring carries flits through (spec.md §4.3 NoRD bypass
// ring).
type nordPolicy struct{}

func (nordPolicy) Name() string             { return string(PGNoRD) }
func (nordPolicy) AllowGating(r *Router) bool { return r.id != r.network.FabricManager }
func (nordPolicy) FlyOverAxes() []int       { return nil }
func (nordPolicy) UsesEscapeRouting() bool  { return false }
func (nordPolicy) UsesBypassRing() bool     { return true }
