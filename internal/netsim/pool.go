package netsim

import "sync"

// Pool is a typed free-list for reuse of short-lived per-cycle objects
// (flits, credits, handshakes). Get returns a reset object; Free returns
// it for reuse. There is no true concurrency in the simulator (it is
// single-threaded, clock-synchronous — see Network.Step), so the
// underlying sync.Pool is used purely as an allocation-reuse mechanism,
// not for thread safety.
type Pool[T any] struct {
	p sync.Pool
}

// NewPool creates a Pool whose New() returns objects produced by reset,
// called with a freshly zeroed *T each time the underlying sync.Pool misses.
func NewPool[T any](reset func(*T)) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() any {
				var v T
				if reset != nil {
					reset(&v)
				}
				return &v
			},
		},
	}
}

// Get returns a reset *T, reused from the pool when available.
func (p *Pool[T]) Get(reset func(*T)) *T {
	v := p.p.Get().(*T)
	if reset != nil {
		reset(v)
	}
	return v
}

// Free returns v to the pool for reuse.
func (p *Pool[T]) Free(v *T) {
	p.p.Put(v)
}
