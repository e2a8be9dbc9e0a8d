package extmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElementTypeSize(t *testing.T) {
	for _, tc := range []struct {
		typ  ElementType
		size int
	}{
		{ElementUint8, 1},
		{ElementInt8, 1},
		{ElementInt16, 2},
		{ElementUint16, 2},
		{ElementInt32, 4},
		{ElementUint32, 4},
		{ElementFloat32, 4},
		{ElementFloat64, 8},
		{ElementPixel, 1},
		{ElementType(0), 0},
		{ElementType(42), 0},
	} {
		require.Equal(t, tc.size, tc.typ.Size(), "type %s", tc.typ)
	}
}

func TestElementTypeString(t *testing.T) {
	require.Equal(t, "uint8", ElementUint8.String())
	require.Equal(t, "pixel", ElementPixel.String())
	require.Equal(t, "unknown", ElementType(42).String())
}
