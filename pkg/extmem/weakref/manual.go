package weakref

// Manual is a Registrar whose registrations fire only when the
// embedder says so. It stands in for the garbage collector in tests
// and in hosts that drive collection from their own safepoints.
//
// Manual is not safe for concurrent use; the execution model it
// serves serializes all operations (script calls and finalization
// never overlap).
type Manual[T any] struct {
	pending []*manualRegistration
}

// NewManual returns a Manual registrar with no pending registrations.
func NewManual[T any]() *Manual[T] {
	return &Manual[T]{}
}

func (m *Manual[T]) Register(_ *T, release func()) Registration {
	r := &manualRegistration{release: release}
	m.pending = append(m.pending, r)
	return r
}

// FireAll runs every pending registration that has not been stopped,
// as if every registered owner became unreachable at once. It returns
// the number of release functions invoked.
func (m *Manual[T]) FireAll() int {
	fired := 0
	for _, r := range m.pending {
		if r.fire() {
			fired++
		}
	}
	m.pending = m.pending[:0]
	return fired
}

// Fire runs a single registration, if it is pending and was issued by
// this registrar. It reports whether the release function ran.
func (m *Manual[T]) Fire(reg Registration) bool {
	r, ok := reg.(*manualRegistration)
	if !ok {
		return false
	}
	return r.fire()
}

// Pending returns the number of registrations that have neither fired
// nor been stopped.
func (m *Manual[T]) Pending() int {
	n := 0
	for _, r := range m.pending {
		if !r.done {
			n++
		}
	}
	return n
}

type manualRegistration struct {
	release func()
	done    bool
}

func (r *manualRegistration) Stop() {
	r.done = true
	r.release = nil
}

func (r *manualRegistration) fire() bool {
	if r.done {
		return false
	}
	r.done = true
	fn := r.release
	r.release = nil
	fn()
	return true
}
