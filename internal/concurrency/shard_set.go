// File: internal/concurrency/shard_set.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// ShardSet owns a fixed set of queues. Items for the same key always land
// in the same shard, preserving per-key order while shards run in parallel.
type ShardSet[T any] struct {
	shards []*ShardQueue[T]
}

// NewShardSet builds count queues of the given capacity.
func NewShardSet[T any](count, capacity int) *ShardSet[T] {
	if count < 1 {
		count = 1
	}
	shards := make([]*ShardQueue[T], count)
	for i := range shards {
		shards[i] = NewShardQueue[T](capacity)
	}
	return &ShardSet[T]{shards: shards}
}

// For returns the shard index for key (key mod Count).
func (s *ShardSet[T]) For(key int) int {
	idx := key % len(s.shards)
	if idx < 0 {
		idx += len(s.shards)
	}
	return idx
}

// Shard returns the queue at index i.
func (s *ShardSet[T]) Shard(i int) *ShardQueue[T] {
	return s.shards[i]
}

// Count returns the number of shards.
func (s *ShardSet[T]) Count() int {
	return len(s.shards)
}

// Lens reports the current occupancy of every shard.
func (s *ShardSet[T]) Lens() []int {
	out := make([]int, len(s.shards))
	for i, q := range s.shards {
		out[i] = q.Len()
	}
	return out
}

// Close closes every shard queue.
func (s *ShardSet[T]) Close() {
	for _, q := range s.shards {
		q.Close()
	}
}
