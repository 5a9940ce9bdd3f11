package indexing

import (
	"github.com/zeebo/xxh3"
)

// HashIndex maps a normalized key to the build-side row positions carrying it.
// Positions inside a bucket are in ascending build order.
// Large indexes are split into shards keyed by hash; each shard is owned by one builder goroutine.
type HashIndex struct {
	shards    []map[string][]int
	numShards int
	rows      int
}

func newHashIndex(numShards, sizeHint int) *HashIndex {
	numShards = nextPowerOf2(numShards)
	shards := make([]map[string][]int, numShards)
	for i := range shards {
		shards[i] = make(map[string][]int, sizeHint/numShards)
	}
	return &HashIndex{
		shards:    shards,
		numShards: numShards,
	}
}

// nextPowerOf2 returns the next power of 2 >= n
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (h *HashIndex) shard(key string) int {
	if h.numShards == 1 {
		return 0
	}
	return shardOf(xxh3.HashString(key), h.numShards)
}

func shardOf(hash uint64, numShards int) int {
	// Fast modulo for power of 2
	return int(hash & uint64(numShards-1))
}

// Lookup returns the build rows matching key, in build order.
// The returned slice is shared and must not be modified.
func (h *HashIndex) Lookup(key string) []int {
	return h.shards[h.shard(key)][key]
}

// Rows returns the number of indexed build rows
func (h *HashIndex) Rows() int {
	return h.rows
}

// Shards returns the number of shards backing the index
func (h *HashIndex) Shards() int {
	return h.numShards
}

// DistinctKeys returns the number of distinct normalized keys
func (h *HashIndex) DistinctKeys() int {
	n := 0
	for _, s := range h.shards {
		n += len(s)
	}
	return n
}
