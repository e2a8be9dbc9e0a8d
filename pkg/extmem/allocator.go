package extmem

import (
	"github.com/prometheus/prometheus/util/pool"
)

// Allocator supplies the byte buffers backing owned attachments and
// takes them back when an attachment is released.
type Allocator interface {
	Get(size int) ([]byte, error)
	Put([]byte) bool
}

// HeapAllocator allocates a fresh slice per attachment and leaves
// reclamation to the garbage collector once the attachment lets go of
// it.
type HeapAllocator struct{}

func (HeapAllocator) Get(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (HeapAllocator) Put([]byte) bool { return true }

// BytePool recycles buffers through a size-bucketed pool. Buffers come
// back from Get with whatever contents their previous user left; the
// attachment layer makes no zeroing promise either way.
type BytePool struct {
	pool *pool.Pool
}

// NewBytePoolAllocator returns a BytePool with bucket sizes growing
// from minSize to maxSize by factor.
func NewBytePoolAllocator(minSize, maxSize int, factor float64) *BytePool {
	return &BytePool{
		pool: pool.New(
			minSize, maxSize, factor,
			func(size int) interface{} {
				return make([]byte, size)
			}),
	}
}

// Get implements Allocator.
func (p *BytePool) Get(size int) ([]byte, error) {
	return p.pool.Get(size).([]byte)[:size], nil
}

// Put implements Allocator.
func (p *BytePool) Put(b []byte) bool {
	p.pool.Put(b)
	return true
}
