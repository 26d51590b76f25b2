package registry

import "sync/atomic"

// atomicCounter wraps atomic.Uint64 in a named type so Registry's
// counters slice documents its own commutative-add access pattern at
// the call site.
type atomicCounter struct {
	v atomic.Uint64
}

func (c *atomicCounter) add(delta uint64) { c.v.Add(delta) }
func (c *atomicCounter) load() uint64     { return c.v.Load() }

// stopFlag wraps atomic.Bool for the registry's cooperative
// cancellation flag.
type stopFlag struct {
	v atomic.Bool
}

func (f *stopFlag) store(b bool) { f.v.Store(b) }
func (f *stopFlag) load() bool   { return f.v.Load() }
