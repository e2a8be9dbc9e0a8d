// Package extmem attaches natively-allocated byte buffers to
// GC-managed container objects, so script-visible values can wrap
// large raw memory regions the collector never scans. It bridges two
// memory models: buffers are allocated and freed manually, while their
// lifetime is bounded by the reachability of the owning container.
// Every attachment is released exactly once, by whichever of Dispose
// or GC finalization happens first, and every held byte is reported to
// the accountant until then.
package extmem

import (
	"math/bits"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/extmem/pkg/extmem/weakref"
)

// Manager owns the attachment lifecycle: the attach forms, the
// caller-driven Dispose, the GC-driven finalize path, slicing and bulk
// copy. All operations run synchronously to completion; the host
// serializes them with finalization, so the manager takes no locks.
type Manager struct {
	cfg       Config
	logger    log.Logger
	alloc     Allocator
	registrar weakref.Registrar[Container]
	acct      *Accountant
	profiler  Profiler
	metrics   *metrics

	// fatal terminates the process on unrecoverable failures. A field
	// so tests can observe it instead of dying.
	fatal func(msg string, err error)
}

// New returns a Manager. alloc defaults to HeapAllocator and acct to a
// sink-less accountant; registrar must be non-nil (use
// weakref.Runtime[Container]{} in a normal host).
func New(cfg Config, registrar weakref.Registrar[Container], alloc Allocator, acct *Accountant, logger log.Logger, reg prometheus.Registerer) *Manager {
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	if acct == nil {
		acct = NewAccountant(nil)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = MaxLength
	}
	m := &Manager{
		cfg:       cfg,
		logger:    logger,
		alloc:     alloc,
		registrar: registrar,
		acct:      acct,
		metrics:   newMetrics(reg, acct),
	}
	m.fatal = func(msg string, err error) {
		level.Error(logger).Log("msg", msg, "err", err)
		os.Exit(1)
	}
	return m
}

// SetProfiler installs a hook that receives retained-size updates on
// every attach and release.
func (m *Manager) SetProfiler(p Profiler) { m.profiler = p }

// Accountant returns the manager's accountant.
func (m *Manager) Accountant() *Accountant { return m.acct }

// AttachOwned allocates length elements of typ through the manager's
// allocator and attaches the buffer to c. Zero length attaches a nil
// buffer without touching the allocator. Allocation failure terminates
// the process: a half-initialized attachment cannot be rolled back
// without tearing the accounting.
func (m *Manager) AttachOwned(c *Container, length int, typ ElementType) (*Attachment, error) {
	if err := m.checkUnattached(c); err != nil {
		return nil, err
	}
	byteLen, err := m.checkedByteLength(length, typ)
	if err != nil {
		return nil, err
	}
	var data []byte
	if byteLen > 0 {
		data, err = m.alloc.Get(int(byteLen))
		if err != nil {
			m.fatal("out of memory attaching owned buffer", err)
			return nil, err
		}
	}
	return m.attach(c, data, length, typ, releaseDefault, nil, "owned"), nil
}

// AttachExternal transfers ownership of buf to the manager and
// attaches it to c. The buffer is released through the manager's
// allocator when the attachment dies, so it must have come from a
// compatible source. len(buf) must be a multiple of the element size.
func (m *Manager) AttachExternal(c *Container, buf []byte, typ ElementType) (*Attachment, error) {
	length, err := m.checkExternal(c, buf, typ)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		buf = nil
	}
	return m.attach(c, buf, length, typ, releaseDefault, nil, "external"), nil
}

// AttachOwnedWithCallback allocates length elements of typ and
// attaches the buffer with a caller-defined release: when the
// attachment dies, fn(buffer, hint) runs exactly once and the buffer
// is the callback's to free.
func (m *Manager) AttachOwnedWithCallback(c *Container, length int, typ ElementType, fn FreeCallback, hint any) (*Attachment, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if err := m.checkUnattached(c); err != nil {
		return nil, err
	}
	byteLen, err := m.checkedByteLength(length, typ)
	if err != nil {
		return nil, err
	}
	var data []byte
	if byteLen > 0 {
		data, err = m.alloc.Get(int(byteLen))
		if err != nil {
			m.fatal("out of memory attaching owned buffer", err)
			return nil, err
		}
	}
	return m.attach(c, data, length, typ, releaseCallback, &CallbackRecord{fn: fn, hint: hint}, "callback"), nil
}

// AttachExternalWithCallback attaches a caller-supplied buffer with a
// caller-defined release.
func (m *Manager) AttachExternalWithCallback(c *Container, buf []byte, typ ElementType, fn FreeCallback, hint any) (*Attachment, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	length, err := m.checkExternal(c, buf, typ)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		buf = nil
	}
	return m.attach(c, buf, length, typ, releaseCallback, &CallbackRecord{fn: fn, hint: hint}, "callback"), nil
}

// Dispose releases c's attachment while c is still reachable: it
// disarms the pending finalization, runs the release steps for the
// attachment's strategy, and resets c to the empty state. Dispose on
// an empty or never-attached container is a no-op.
func (m *Manager) Dispose(c *Container) {
	if c == nil || c.att == nil {
		return
	}
	att := c.att
	if att.reg != nil {
		// Disarm first so the finalize path can never fire a second
		// release for this attachment.
		att.reg.Stop()
	}
	m.releaseAttachment(att, "dispose")
	c.att = nil
}

// Slice attaches a non-owning view of src's buffer to dst, covering
// elements [start, end). The view shares storage with src, has the
// same element type, releases nothing, and is invisible to the
// accountant.
//
// The source attachment must stay live for as long as the view is in
// use: disposing src frees the buffer out from under every view. That
// obligation sits with the caller; nothing here enforces it.
func (m *Manager) Slice(src, dst *Container, start, end int) (*Attachment, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if dst == nil {
		return nil, ErrNilDest
	}
	if src.att == nil {
		return nil, ErrNoSourceAttachment
	}
	if err := m.checkUnattached(dst); err != nil {
		return nil, err
	}
	sAtt := src.att
	width := sAtt.typ.Size()
	if width == 0 {
		return nil, ErrUnknownSourceType
	}
	if start < 0 || end < start || end > sAtt.length {
		return nil, ErrSliceBounds
	}
	att := &Attachment{
		length:  end - start,
		typ:     sAtt.typ,
		release: releaseNone,
	}
	// start and end are bounded by the source length, which was
	// overflow-checked against the byte ceiling at attach time.
	if sAtt.data != nil {
		att.data = sAtt.data[start*width : end*width]
	}
	dst.att = att
	return att, nil
}

// attach binds the buffer to the container, registers the single-fire
// finalization, and accounts the held bytes.
func (m *Manager) attach(c *Container, data []byte, length int, typ ElementType, kind releaseKind, rec *CallbackRecord, mode string) *Attachment {
	att := &Attachment{
		data:    data,
		length:  length,
		typ:     typ,
		release: kind,
		record:  rec,
	}
	// The release closure reaches only the manager and the attachment,
	// never the container, or the registration could keep it alive
	// forever.
	att.reg = m.registrar.Register(c, func() { m.finalize(att) })
	c.att = att

	delta := att.byteLen()
	if rec != nil {
		delta += callbackRecordOverhead
	}
	m.acct.AdjustBy(delta)
	m.metrics.attachments.WithLabelValues(mode).Inc()
	if m.profiler != nil {
		m.profiler.ReportRetained(att.Retained())
	}
	level.Debug(m.logger).Log("msg", "attached", "mode", mode, "bytes", delta, "type", typ, "elements", length)
	return att
}

// finalize is the GC-driven release path. It runs after the owning
// container became unreachable, so there is no caller to report to and
// no container state to reset. The registrar's single-fire contract is
// the only idempotency guard.
func (m *Manager) finalize(att *Attachment) {
	m.releaseAttachment(att, "finalize")
}

// releaseAttachment runs the decrement and release steps for the
// attachment's strategy. Shared by Dispose and finalize; each
// attachment passes through here exactly once.
func (m *Manager) releaseAttachment(att *Attachment, path string) {
	info := att.Retained()
	switch att.release {
	case releaseNone:
		// An aliasing view owns nothing and was never accounted.
		return
	case releaseDefault:
		m.acct.AdjustBy(-att.byteLen())
		if att.data != nil {
			m.alloc.Put(att.data)
		}
	case releaseCallback:
		m.acct.AdjustBy(-(att.byteLen() + callbackRecordOverhead))
		rec := att.record
		att.record = nil
		rec.fn(att.data, rec.hint)
	}
	att.data = nil
	m.metrics.releases.WithLabelValues(path).Inc()
	level.Debug(m.logger).Log("msg", "released", "path", path, "bytes", info.Bytes, "strategy", att.release)
	if m.profiler != nil {
		info.Bytes = 0
		m.profiler.ReportRetained(info)
	}
}

// checkUnattached validates the attach precondition: the target must
// currently hold no attachment. Attaching over an existing attachment
// is a caller bug.
func (m *Manager) checkUnattached(c *Container) error {
	if c == nil {
		return ErrNilContainer
	}
	if c.att != nil {
		if m.cfg.Strict {
			panic(ErrAlreadyAttached)
		}
		return ErrAlreadyAttached
	}
	return nil
}

// checkedByteLength converts an element count to a byte length,
// rejecting unknown types, negative counts, multiplication overflow
// and lengths above the configured ceiling, all before any allocation.
func (m *Manager) checkedByteLength(length int, typ ElementType) (int64, error) {
	width := typ.Size()
	if width == 0 {
		return 0, ErrUnknownElementType
	}
	if length < 0 {
		return 0, ErrNegativeArgument
	}
	hi, lo := bits.Mul64(uint64(length), uint64(width))
	if hi != 0 {
		return 0, ErrLengthOverflow
	}
	if lo > uint64(m.cfg.MaxLength) {
		return 0, ErrLengthTooLarge
	}
	return int64(lo), nil
}

// checkExternal validates an external-buffer attach and returns the
// element count.
func (m *Manager) checkExternal(c *Container, buf []byte, typ ElementType) (int, error) {
	if err := m.checkUnattached(c); err != nil {
		return 0, err
	}
	width := typ.Size()
	if width == 0 {
		return 0, ErrUnknownElementType
	}
	if len(buf)%width != 0 {
		// A ragged tail would be held but not re-derivable from
		// length times element size, tearing the accounting.
		return 0, ErrRaggedBuffer
	}
	if uint64(len(buf)) > uint64(m.cfg.MaxLength) {
		return 0, ErrLengthTooLarge
	}
	return len(buf) / width, nil
}
