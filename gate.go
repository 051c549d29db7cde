package packlate

import "sync/atomic"

// Gate is the rate-limit short-circuit for one run. It starts open and, once
// tripped, stays tripped: every later translation attempt in the run is
// skipped without contacting the backend.
//
// Trip is idempotent, so concurrent workers may race to trip it.
type Gate struct {
	tripped atomic.Bool
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Trip closes the gate. It returns true only for the call that performed the
// transition.
func (g *Gate) Trip() bool {
	return g.tripped.CompareAndSwap(false, true)
}

// Tripped reports whether the gate has been tripped.
func (g *Gate) Tripped() bool {
	return g.tripped.Load()
}
