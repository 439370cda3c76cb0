// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import "sync"

// ObjectPool is a typed get/put pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

var _ ObjectPool[*[]byte] = (*SyncPool[*[]byte])(nil)

// SyncPool is a typed view over sync.Pool. T should be a pointer type so
// Put does not allocate.
type SyncPool[T any] struct {
	pool sync.Pool
}

// NewSyncPool creates a pool that calls newFn when empty.
func NewSyncPool[T any](newFn func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool.New = func() any { return newFn() }
	return sp
}

// Get returns a pooled object or a fresh one.
func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

// Put hands obj back for reuse.
func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}
