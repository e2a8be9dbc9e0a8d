package binding_test

import (
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/grafana/extmem/pkg/extmem"
	"github.com/grafana/extmem/pkg/extmem/binding"
	"github.com/grafana/extmem/pkg/extmem/weakref"
)

func newManager() *extmem.Manager {
	return extmem.New(extmem.Config{}, weakref.NewManual[extmem.Container](), nil, nil, log.NewNopLogger(), nil)
}

func TestAttachDefaultsToUint8(t *testing.T) {
	m := newManager()
	c := extmem.NewContainer()

	got, err := binding.Attach(m, c, 16)
	require.NoError(t, err)
	require.Same(t, c, got, "attach returns its container")
	require.True(t, binding.HasAttachment(c))
	require.Equal(t, extmem.ElementUint8, c.Attachment().ElementType())
	require.Equal(t, int64(16), m.Accountant().CurrentTotal())
}

func TestAttachExplicitType(t *testing.T) {
	m := newManager()
	c := extmem.NewContainer()

	_, err := binding.Attach(m, c, 4, extmem.ElementFloat64)
	require.NoError(t, err)
	require.Equal(t, extmem.ElementFloat64, c.Attachment().ElementType())
	require.Equal(t, int64(32), m.Accountant().CurrentTotal())
}

func TestSliceReturnsSource(t *testing.T) {
	m := newManager()
	src, dst := extmem.NewContainer(), extmem.NewContainer()
	_, err := binding.Attach(m, src, 10)
	require.NoError(t, err)

	got, err := binding.Slice(m, src, dst, 3, 7)
	require.NoError(t, err)
	require.Same(t, src, got, "slice returns the source, the dest carries the view")
	require.Equal(t, 4, dst.Len())
}

func TestDisposeAndHasAttachment(t *testing.T) {
	m := newManager()
	c := extmem.NewContainer()
	require.False(t, binding.HasAttachment(c))

	_, err := binding.Attach(m, c, 8)
	require.NoError(t, err)
	require.True(t, binding.HasAttachment(c))

	binding.Dispose(m, c)
	require.False(t, binding.HasAttachment(c))
	require.Equal(t, int64(0), m.Accountant().CurrentTotal())
}

func TestCopy(t *testing.T) {
	m := newManager()
	src, dst := extmem.NewContainer(), extmem.NewContainer()
	_, err := binding.Attach(m, src, 10)
	require.NoError(t, err)
	_, err = binding.Attach(m, dst, 10)
	require.NoError(t, err)
	copy(src.Bytes(), []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	require.NoError(t, binding.Copy(m, src, 2, dst, 0, 5))
	require.Equal(t, []byte{2, 3, 4, 5, 6}, dst.Bytes()[:5])
}

func TestKMaxLength(t *testing.T) {
	require.Equal(t, 0x3fffffff, binding.KMaxLength)

	m := newManager()
	_, err := binding.Attach(m, extmem.NewContainer(), binding.KMaxLength+1)
	require.True(t, extmem.IsRangeError(err))
}
