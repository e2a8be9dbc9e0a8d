package extmem

import "go.uber.org/atomic"

// Accountant is the running total of externally held bytes, fed to
// the host's heap sizing heuristics. Every increment from an attach
// must be matched by exactly one decrement from the corresponding
// release; the accountant itself does no clamping and no pairing. An
// imbalance is a correctness bug upstream.
//
// One accountant per host instance. The atomic keeps CurrentTotal safe
// to read from metric scrapes; callers are otherwise serialized.
type Accountant struct {
	total atomic.Int64
	sink  func(delta int64)
}

// NewAccountant returns an accountant. sink, if non-nil, receives
// every adjustment and is the hook through which the host GC observes
// external memory pressure.
func NewAccountant(sink func(delta int64)) *Accountant {
	return &Accountant{sink: sink}
}

// AdjustBy adds delta (which may be negative) to the running total and
// forwards it to the pressure sink.
func (a *Accountant) AdjustBy(delta int64) {
	a.total.Add(delta)
	if a.sink != nil {
		a.sink(delta)
	}
}

// CurrentTotal returns the externally held byte count.
func (a *Accountant) CurrentTotal() int64 {
	return a.total.Load()
}
