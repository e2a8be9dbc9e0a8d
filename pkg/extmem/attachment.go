package extmem

import (
	"fmt"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/grafana/extmem/pkg/extmem/weakref"
)

// FreeCallback releases a caller-supplied buffer. It receives the
// buffer exactly as it was attached, plus the opaque hint given at
// attach time.
type FreeCallback func(data []byte, hint any)

// releaseKind selects how an attachment's buffer is released.
type releaseKind uint8

const (
	// releaseDefault returns the buffer to the manager's allocator.
	releaseDefault releaseKind = iota
	// releaseCallback invokes the caller's FreeCallback.
	releaseCallback
	// releaseNone marks an aliasing view that owns nothing.
	releaseNone
)

func (k releaseKind) String() string {
	switch k {
	case releaseDefault:
		return "default"
	case releaseCallback:
		return "callback"
	case releaseNone:
		return "none"
	default:
		return "unknown"
	}
}

// CallbackRecord carries a caller-supplied release callback and its
// hint. It is reachable only through its attachment and lives until
// the release fires, and its size joins the external-memory accounting
// for the attachment that owns it.
type CallbackRecord struct {
	fn   FreeCallback
	hint any
}

// callbackRecordOverhead is the accounting surcharge for callback
// attachments.
var callbackRecordOverhead = int64(unsafe.Sizeof(CallbackRecord{}))

// Attachment binds a byte buffer to a container. It is created by one
// of the Manager attach operations, never mutated in place, and
// destroyed by exactly one of Dispose or the finalize path.
type Attachment struct {
	data    []byte
	length  int // element count
	typ     ElementType
	release releaseKind
	record  *CallbackRecord
	reg     weakref.Registration
}

// Len returns the element count.
func (a *Attachment) Len() int { return a.length }

// ElementType returns the element-type tag.
func (a *Attachment) ElementType() ElementType { return a.typ }

// Bytes returns the raw byte region. It is nil for a zero-length
// attachment. Writes through the returned slice are visible to every
// view aliasing the same region.
func (a *Attachment) Bytes() []byte { return a.data }

// byteLen recomputes the byte length from the element count and type.
// Only these two are retained, so the release paths derive the byte
// count the same way the attach paths did.
func (a *Attachment) byteLen() int64 {
	return int64(a.length) * int64(a.typ.Size())
}

// Retained returns the diagnostic retained-size tuple for this
// attachment: a fixed label, the byte size, and an identity hash taken
// from the buffer address.
func (a *Attachment) Retained() RetainedInfo {
	return RetainedInfo{
		Label: retainedLabel,
		Bytes: a.byteLen(),
		Hash:  uintptr(unsafe.Pointer(unsafe.SliceData(a.data))),
	}
}

// Container is a GC-managed object that script-visible values wrap. A
// container holds at most one attachment at a time.
type Container struct {
	att *Attachment
}

// NewContainer returns a container with no attachment.
func NewContainer() *Container { return &Container{} }

// Attached reports whether the container currently holds an
// attachment. A disposed container is indistinguishable from a
// never-attached one.
func (c *Container) Attached() bool { return c != nil && c.att != nil }

// Attachment returns the current attachment, or nil.
func (c *Container) Attachment() *Attachment {
	if c == nil {
		return nil
	}
	return c.att
}

// Bytes returns the attached byte region, or nil.
func (c *Container) Bytes() []byte {
	if c == nil || c.att == nil {
		return nil
	}
	return c.att.data
}

// Len returns the attached element count, or 0.
func (c *Container) Len() int {
	if c == nil || c.att == nil {
		return 0
	}
	return c.att.length
}

const retainedLabel = "extmem"

// RetainedInfo is the (label, size, identity hash) tuple handed to
// profiling hooks for retained-size reporting. Two infos with the same
// label and hash describe the same buffer.
type RetainedInfo struct {
	Label string
	Bytes int64
	Hash  uintptr
}

func (i RetainedInfo) String() string {
	return fmt.Sprintf("%s: %s retained at %#x", i.Label, humanize.IBytes(uint64(i.Bytes)), i.Hash)
}

// Profiler receives retained-size updates. Attaching reports the
// buffer's size; releasing reports size zero under the same hash.
type Profiler interface {
	ReportRetained(info RetainedInfo)
}
