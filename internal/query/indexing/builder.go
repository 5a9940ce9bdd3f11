package indexing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zeebo/xxh3"
)

// BuildOptions controls how a HashIndex is built
type BuildOptions struct {
	Workers      int // shard count for parallel builds
	ShardMinRows int // inputs smaller than this are indexed sequentially
}

// BuildIndex indexes keys[i] -> i for every build row.
// Inputs of at least ShardMinRows rows are built in parallel shards, one goroutine per shard;
// the result is identical to the sequential build.
func BuildIndex(ctx context.Context, keys []string, opts BuildOptions) (*HashIndex, error) {
	if opts.Workers <= 1 || len(keys) < opts.ShardMinRows {
		idx := buildSequential(keys)
		logBuilt(idx)
		return idx, nil
	}

	idx, err := buildSharded(ctx, keys, opts.Workers)
	if err != nil {
		return nil, err
	}
	logBuilt(idx)
	return idx, nil
}

func buildSequential(keys []string) *HashIndex {
	idx := newHashIndex(1, len(keys))
	table := idx.shards[0]
	for rowPos, key := range keys {
		table[key] = append(table[key], rowPos)
	}
	idx.rows = len(keys)
	return idx
}

func buildSharded(ctx context.Context, keys []string, workers int) (*HashIndex, error) {
	idx := newHashIndex(workers, len(keys))

	// Hash once, in parallel chunks
	hashes := make([]uint64, len(keys))
	chunk := (len(keys) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(keys); start += chunk {
		end := min(start+chunk, len(keys))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				hashes[i] = xxh3.HashString(keys[i])
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Each worker scans all hashes but only inserts the ones belonging to its shard,
	// so buckets stay in ascending row order without locks.
	for p := 0; p < idx.numShards; p++ {
		wg.Add(1)
		go func(partID int) {
			defer wg.Done()
			table := idx.shards[partID]
			for rowPos, hash := range hashes {
				if shardOf(hash, idx.numShards) == partID {
					table[keys[rowPos]] = append(table[keys[rowPos]], rowPos)
				}
			}
		}(p)
	}
	wg.Wait()

	idx.rows = len(keys)
	return idx, ctx.Err()
}

func logBuilt(idx *HashIndex) {
	slog.Debug("index built",
		slog.Int("rows", idx.rows),
		slog.Int("distinct_keys", idx.DistinctKeys()),
		slog.Int("shards", idx.numShards))
}
