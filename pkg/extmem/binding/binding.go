// Package binding exposes the attachment operations in the shape the
// script-facing marshaling layer calls them, keeping the historical
// return conventions: attach hands back the container, slice hands
// back the source.
package binding

import (
	"github.com/grafana/extmem/pkg/extmem"
)

// KMaxLength is the ceiling on a single attachment's byte length,
// exported to scripting callers. Any length above it is rejected
// before allocation.
const KMaxLength = extmem.MaxLength

// Attach allocates length elements on c and returns c. The element
// type defaults to uint8 when not given.
func Attach(m *extmem.Manager, c *extmem.Container, length int, typ ...extmem.ElementType) (*extmem.Container, error) {
	t := extmem.ElementUint8
	if len(typ) > 0 {
		t = typ[0]
	}
	if _, err := m.AttachOwned(c, length, t); err != nil {
		return nil, err
	}
	return c, nil
}

// Dispose releases c's attachment, if any.
func Dispose(m *extmem.Manager, c *extmem.Container) {
	m.Dispose(c)
}

// Copy moves n units from src at srcStart to dst at dstStart.
func Copy(m *extmem.Manager, src *extmem.Container, srcStart int, dst *extmem.Container, dstStart, n int) error {
	return m.Copy(src, srcStart, dst, dstStart, n)
}

// Slice attaches a view of src's elements [start, end) to dst and
// returns src.
func Slice(m *extmem.Manager, src, dst *extmem.Container, start, end int) (*extmem.Container, error) {
	if _, err := m.Slice(src, dst, start, end); err != nil {
		return nil, err
	}
	return src, nil
}

// HasAttachment reports whether c currently holds an attachment.
func HasAttachment(c *extmem.Container) bool {
	return c.Attached()
}
