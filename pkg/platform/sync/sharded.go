// Package sync provides concurrency helpers shared across services.
package sync

import (
	"hash/fnv"
	"sync"
)

// shardCount balances memory against collision probability for the expected
// number of concurrently-active tenants.
const shardCount = 64

// ShardedMutex provides fine-grained locking keyed by an arbitrary string.
// Instead of a single global lock, operations are distributed across N shards
// based on a hash of the key, reducing contention under concurrent load.
//
// The audit service uses one of these keyed by tenant ID to serialize the
// read-compute-write section of an append, so two in-process writers for the
// same tenant can never observe the same chain tail.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

// NewShardedMutex creates a ShardedMutex.
func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the lock for the given key's shard.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(key)) //nolint:errcheck // fnv never fails
	return int(h.Sum32() % shardCount)
}
