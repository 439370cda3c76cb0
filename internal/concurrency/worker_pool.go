// File: internal/concurrency/worker_pool.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WorkerPool runs exactly one worker goroutine per shard. Each worker is the
// sole consumer of its shard and is locked to its own OS thread so a slow
// write on one shard never stalls another shard or the event loop.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// HandlerFunc processes one item dequeued from shard.
type HandlerFunc[T any] func(shard int, item T)

// WorkerPool manages one worker per shard of a ShardSet.
type WorkerPool[T any] struct {
	set     *ShardSet[T]
	handler HandlerFunc[T]
	log     *zap.Logger
	workers []*worker[T]
	started atomic.Bool
	wg      sync.WaitGroup
}

// NewWorkerPool binds a handler to every shard of set. Workers start on Start.
func NewWorkerPool[T any](set *ShardSet[T], handler HandlerFunc[T], log *zap.Logger) *WorkerPool[T] {
	if log == nil {
		log = zap.NewNop()
	}
	p := &WorkerPool[T]{set: set, handler: handler, log: log}
	p.workers = make([]*worker[T], set.Count())
	for i := range p.workers {
		p.workers[i] = &worker[T]{id: i, pool: p, queue: set.Shard(i), stoppedCh: make(chan struct{})}
	}
	return p
}

// Start launches the workers. Calling it twice is a no-op.
func (p *WorkerPool[T]) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run()
	}
}

// Stop closes every shard and waits until each worker has drained its queue
// and exited.
func (p *WorkerPool[T]) Stop() {
	p.set.Close()
	if p.started.Load() {
		p.wg.Wait()
	}
}

// NumWorkers returns worker count.
func (p *WorkerPool[T]) NumWorkers() int {
	return len(p.workers)
}

// Processed returns how many items worker i has handled.
func (p *WorkerPool[T]) Processed(i int) uint64 {
	return p.workers[i].processed.Load()
}

// Stopped is closed once worker i has exited.
func (p *WorkerPool[T]) Stopped(i int) <-chan struct{} {
	return p.workers[i].stoppedCh
}

type worker[T any] struct {
	id        int
	pool      *WorkerPool[T]
	queue     *ShardQueue[T]
	processed atomic.Uint64
	stoppedCh chan struct{}
}

func (w *worker[T]) run() {
	runtime.LockOSThread()
	defer func() {
		runtime.UnlockOSThread()
		w.pool.wg.Done()
		close(w.stoppedCh)
	}()
	for {
		item, ok := w.queue.Dequeue()
		if !ok {
			return
		}
		w.safeExecute(item)
		w.processed.Add(1)
	}
}

func (w *worker[T]) safeExecute(item T) {
	defer func() {
		if r := recover(); r != nil {
			w.pool.log.Error("worker recovered from panic", zap.Int("shard", w.id), zap.Any("panic", r))
		}
	}()
	w.pool.handler(w.id, item)
}
