package extmem

// ElementType selects the byte width and interpretation of an
// attachment's contents.
type ElementType uint8

// The recognized element types. ElementPixel is the legacy clamped
// byte type and shares the width of ElementUint8.
const (
	ElementUint8 ElementType = iota + 1
	ElementInt8
	ElementInt16
	ElementUint16
	ElementInt32
	ElementUint32
	ElementFloat32
	ElementFloat64
	ElementPixel
)

// Size returns the byte width of a single element, or 0 if the tag is
// not recognized. Callers must treat 0 as a validation failure, never
// as a zero-width element.
func (t ElementType) Size() int {
	switch t {
	case ElementUint8, ElementInt8, ElementPixel:
		return 1
	case ElementInt16, ElementUint16:
		return 2
	case ElementInt32, ElementUint32, ElementFloat32:
		return 4
	case ElementFloat64:
		return 8
	}
	return 0
}

func (t ElementType) String() string {
	switch t {
	case ElementUint8:
		return "uint8"
	case ElementInt8:
		return "int8"
	case ElementInt16:
		return "int16"
	case ElementUint16:
		return "uint16"
	case ElementInt32:
		return "int32"
	case ElementUint32:
		return "uint32"
	case ElementFloat32:
		return "float32"
	case ElementFloat64:
		return "float64"
	case ElementPixel:
		return "pixel"
	default:
		return "unknown"
	}
}
