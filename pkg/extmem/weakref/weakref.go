// Package weakref provides single-fire finalization registrations for
// heap objects. A registration runs its release function at most once,
// after the owner becomes unreachable, unless it is stopped first.
//
// The package is the boundary to the host garbage collector: the
// production implementation rides on runtime.AddCleanup, and Manual
// gives embedders with their own collection points (and tests) a
// deterministic trigger.
package weakref

import "runtime"

// Registration is a pending finalization. Stop disarms it; after a
// successful Stop the release function will never run.
type Registration interface {
	Stop()
}

// Registrar registers release functions to run after an owner becomes
// unreachable. Implementations guarantee the release function runs at
// most once per registration.
//
// The release function must not capture the owner, directly or
// indirectly: a release that can reach its owner keeps it alive and
// never runs.
type Registrar[T any] interface {
	Register(owner *T, release func()) Registration
}

// Runtime is the production Registrar, backed by the Go runtime's
// cleanup mechanism. Release functions are invoked by the runtime once
// the owner is unreachable, serialized with respect to each other on
// the cleanup goroutine.
type Runtime[T any] struct{}

func (Runtime[T]) Register(owner *T, release func()) Registration {
	c := runtime.AddCleanup(owner, func(fn func()) { fn() }, release)
	return runtimeRegistration{c}
}

type runtimeRegistration struct {
	c runtime.Cleanup
}

func (r runtimeRegistration) Stop() {
	r.c.Stop()
}
