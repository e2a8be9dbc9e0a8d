package weakref

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type owner struct {
	_ [64]byte
}

func TestManualFiresOnce(t *testing.T) {
	m := NewManual[owner]()

	calls := 0
	reg := m.Register(&owner{}, func() { calls++ })
	require.Equal(t, 1, m.Pending())

	require.True(t, m.Fire(reg))
	require.Equal(t, 1, calls)
	require.False(t, m.Fire(reg))
	require.Equal(t, 1, calls)
}

func TestManualStopDisarms(t *testing.T) {
	m := NewManual[owner]()

	calls := 0
	reg := m.Register(&owner{}, func() { calls++ })
	reg.Stop()

	require.Equal(t, 0, m.Pending())
	require.Equal(t, 0, m.FireAll())
	require.Equal(t, 0, calls)
}

func TestManualFireAll(t *testing.T) {
	m := NewManual[owner]()

	calls := 0
	for i := 0; i < 3; i++ {
		m.Register(&owner{}, func() { calls++ })
	}
	stopped := m.Register(&owner{}, func() { calls++ })
	stopped.Stop()

	require.Equal(t, 3, m.FireAll())
	require.Equal(t, 3, calls)
	require.Equal(t, 0, m.FireAll(), "registrations are single-fire")
}

func TestRuntimeFiresAfterCollection(t *testing.T) {
	fired := make(chan struct{})
	registerDoomed(fired)

	deadline := time.After(5 * time.Second)
	for {
		runtime.GC()
		select {
		case <-fired:
			return
		case <-deadline:
			t.Fatal("release did not run after collection")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// registerDoomed registers a release on an owner that dies when the
// frame returns.
func registerDoomed(fired chan struct{}) {
	o := &owner{}
	Runtime[owner]{}.Register(o, func() { close(fired) })
}

func TestRuntimeStopDisarms(t *testing.T) {
	released := false
	func() {
		o := &owner{}
		reg := Runtime[owner]{}.Register(o, func() { released = true })
		reg.Stop()
	}()

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	require.False(t, released, "a stopped registration must never fire")
}
