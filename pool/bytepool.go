// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-shard/api"
)

var _ api.BytePool = (*BytePool)(nil)

// BytePool hands out slices backed by fixed-size slabs. Requests larger than
// the slab size fall back to a plain allocation that is never pooled.
type BytePool struct {
	size     int
	slabs    *SyncPool[*[]byte]
	inUse    atomic.Int64
	allocs   atomic.Int64
	oversize atomic.Int64
}

// NewBytePool creates a pool of slabs of the given size.
func NewBytePool(size int) *BytePool {
	p := &BytePool{size: size}
	p.slabs = NewSyncPool(func() *[]byte {
		p.allocs.Add(1)
		b := make([]byte, size)
		return &b
	})
	return p
}

// Acquire returns a slice of length n.
func (p *BytePool) Acquire(n int) []byte {
	if n > p.size {
		p.oversize.Add(1)
		return make([]byte, n)
	}
	p.inUse.Add(1)
	b := p.slabs.Get()
	return (*b)[:n]
}

// Release returns buf to the pool. Buffers that did not come from the pool
// are left to the garbage collector.
func (p *BytePool) Release(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	p.inUse.Add(-1)
	buf = buf[:p.size]
	p.slabs.Put(&buf)
}

// SlabSize returns the fixed slab size.
func (p *BytePool) SlabSize() int { return p.size }

// Stats reports slab usage.
func (p *BytePool) Stats() Stats {
	return Stats{InUse: p.inUse.Load(), Allocs: p.allocs.Load(), Oversize: p.oversize.Load()}
}

// Stats aggregates buffer allocation/reuse counters.
type Stats struct {
	InUse    int64
	Allocs   int64
	Oversize int64
}
