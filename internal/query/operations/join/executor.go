package join

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"

	"github.com/leengari/tabular/internal/domain/data"
	"github.com/leengari/tabular/internal/query/indexing"
)

// RowSource yields the streamed side in source order
type RowSource interface {
	// NextBatch returns up to n rows. It returns io.EOF, with no rows, once the source is exhausted.
	NextBatch(n int) ([]data.Row, error)
}

// RowSink receives output rows in their final order
type RowSink interface {
	WriteRow(row data.Row) error
}

// Options carries execution parameters into the driver
type Options struct {
	Workers      int // parallel key lookups per batch, <= 1 runs the probe inline
	BatchSize    int // probe rows read per batch
	ShardMinRows int // build sides this large are indexed in parallel shards
}

// Plan describes one join after both key specs have been resolved
type Plan struct {
	Mode       Mode
	LeftWidth  int
	RightWidth int
	BuildKeys  *indexing.KeyBuilder // nil for cross
	ProbeKeys  *indexing.KeyBuilder // nil for cross
	Recorder   *KeyRecorder         // nil disables key capture
}

// Stats summarizes a finished join
type Stats struct {
	Mode         Mode
	BuildRows    int // rows materialized on the build side
	DistinctKeys int // distinct normalized keys in the build index
	ProbeRows    int // rows streamed from the probe side
	Batches      int // probe batches processed
	ProbeMatched int // probe rows with at least one match
	BuildMatched int // build rows matched by at least one probe row
	TailRows     int // unmatched build rows appended by the tail pass
	OutputRows   int // rows written to the sink, header excluded
	RecordedKeys int // distinct keys captured for keys-output
}

// Executor runs one join in three phases: Build, Probe and Tail.
// The index and the build rows are immutable once Build returns; match marks are
// only written by the goroutine that calls Probe.
type Executor struct {
	plan   Plan
	opts   Options
	policy policy
	layout layout

	build *data.Table
	index *indexing.HashIndex
	marks *roaring.Bitmap
	pool  *ants.Pool // probe workers, released when Probe returns
	stats Stats
}

// NewExecutor creates an executor for the given plan
func NewExecutor(plan Plan, opts Options) *Executor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 4096
	}
	return &Executor{
		plan:   plan,
		opts:   opts,
		policy: plan.Mode.policy(),
		layout: layout{
			probeSide:  plan.Mode.ProbeSide(),
			leftWidth:  plan.LeftWidth,
			rightWidth: plan.RightWidth,
		},
		marks: roaring.New(),
		stats: Stats{Mode: plan.Mode},
	}
}

// Build takes ownership of the materialized build side and indexes it.
// Cross joins keep the rows without indexing them.
func (e *Executor) Build(ctx context.Context, table *data.Table) error {
	e.build = table
	e.stats.BuildRows = table.Len()

	if e.plan.Mode.IsCross() {
		return nil
	}
	if e.plan.BuildKeys == nil || e.plan.ProbeKeys == nil {
		return fmt.Errorf("%s requires key builders for both sides", e.plan.Mode)
	}

	keys := e.plan.BuildKeys.Keys(table.Rows)
	idx, err := indexing.BuildIndex(ctx, keys, indexing.BuildOptions{
		Workers:      e.opts.Workers,
		ShardMinRows: e.opts.ShardMinRows,
	})
	if err != nil {
		return err
	}

	e.index = idx
	e.stats.DistinctKeys = idx.DistinctKeys()
	return nil
}

// Probe streams src against the build index and writes output rows to sink.
// Each batch is looked up in parallel, then collected and flushed in source order.
func (e *Executor) Probe(ctx context.Context, src RowSource, sink RowSink) (err error) {
	if e.build == nil {
		return fmt.Errorf("%s: probe before build", e.plan.Mode)
	}

	slog.Debug("Starting "+e.plan.Mode.String(),
		slog.String("build_side", e.plan.Mode.BuildSide().String()),
		slog.Int("build_rows", e.stats.BuildRows),
		slog.Int("workers", e.opts.Workers),
		slog.Int("batch_size", e.opts.BatchSize),
	)

	if e.opts.Workers > 1 && !e.plan.Mode.IsCross() {
		e.pool, err = ants.NewPool(e.opts.Workers)
		if err != nil {
			return fmt.Errorf("create probe pool: %w", err)
		}
		defer e.pool.Release()
	}

	var out []data.Row
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, readErr := src.NextBatch(e.opts.BatchSize)
		if len(batch) > 0 {
			e.stats.Batches++
			e.stats.ProbeRows += len(batch)

			if e.plan.Mode.IsCross() {
				err = e.crossBatch(batch, sink)
			} else {
				err = e.probeBatch(e.pool, batch, sink, &out)
			}
			if err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	e.stats.BuildMatched = int(e.marks.GetCardinality())
	if e.plan.Recorder != nil {
		e.stats.RecordedKeys = e.plan.Recorder.Len()
	}
	return nil
}

// probeBatch looks up every row of the batch, then applies the mode policy in row order.
// Match marks and recorded keys are merged here, after the lookups finish, so the
// lookup workers never write shared state.
func (e *Executor) probeBatch(pool *ants.Pool, batch []data.Row, sink RowSink, out *[]data.Row) error {
	keys, matches, err := e.lookup(pool, batch)
	if err != nil {
		return err
	}

	for i, row := range batch {
		m := matches[i]
		matched := len(m) > 0

		if matched {
			e.stats.ProbeMatched++
			for _, pos := range m {
				e.marks.Add(uint32(pos))
			}
		}

		if e.plan.Recorder != nil && e.plan.Mode.Records(matched) {
			e.plan.Recorder.Record(keys[i], e.plan.ProbeKeys.Original(row))
		}

		*out = e.policy.emit((*out)[:0], e.layout, row, m, e.build.Rows)
		for _, r := range *out {
			if err := sink.WriteRow(r); err != nil {
				return err
			}
			e.stats.OutputRows++
		}
	}
	return nil
}

// lookup computes the key and the matching build rows of every batch row.
// Results are written by position, so the batch order is kept regardless of scheduling.
func (e *Executor) lookup(pool *ants.Pool, batch []data.Row) ([]string, [][]int, error) {
	keys := make([]string, len(batch))
	matches := make([][]int, len(batch))

	work := func(start, end int) {
		for i := start; i < end; i++ {
			keys[i] = e.plan.ProbeKeys.Key(batch[i])
			matches[i] = e.index.Lookup(keys[i])
		}
	}

	if pool == nil || len(batch) < 2 {
		work(0, len(batch))
		return keys, matches, nil
	}

	chunk := (len(batch) + e.opts.Workers - 1) / e.opts.Workers
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for start := 0; start < len(batch); start += chunk {
		start, end := start, min(start+chunk, len(batch))
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			work(start, end)
		}); err != nil {
			wg.Done()
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
		}
	}
	wg.Wait()

	if errs != nil {
		return nil, nil, fmt.Errorf("submit probe batch: %w", errs)
	}
	return keys, matches, nil
}

// crossBatch emits every (left, right) combination for a batch of left rows
func (e *Executor) crossBatch(batch []data.Row, sink RowSink) error {
	for _, left := range batch {
		for _, right := range e.build.Rows {
			if err := sink.WriteRow(data.Combine(left, e.plan.LeftWidth, right, e.plan.RightWidth)); err != nil {
				return err
			}
			e.stats.OutputRows++
		}
	}
	return nil
}

// Tail appends unmatched build rows, in build order, padded on the probe side.
// Keys are never recorded here.
func (e *Executor) Tail(ctx context.Context, sink RowSink) error {
	if !e.plan.Mode.NeedsTailPass() {
		return nil
	}

	unmatched := roaring.Flip(e.marks, 0, uint64(e.build.Len()))
	it := unmatched.Iterator()
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos := it.Next()
		if err := sink.WriteRow(e.layout.combine(nil, e.build.Rows[pos])); err != nil {
			return err
		}
		e.stats.TailRows++
		e.stats.OutputRows++
	}
	return nil
}

// Stats returns the counters collected so far
func (e *Executor) Stats() Stats {
	return e.stats
}

// ExecuteJoin runs all phases of a join over a materialized build side and a streamed probe side
func ExecuteJoin(ctx context.Context, plan Plan, opts Options, build *data.Table, probe RowSource, sink RowSink) (Stats, error) {
	e := NewExecutor(plan, opts)

	if err := e.Build(ctx, build); err != nil {
		return e.Stats(), err
	}
	if err := e.Probe(ctx, probe, sink); err != nil {
		return e.Stats(), err
	}
	if err := e.Tail(ctx, sink); err != nil {
		return e.Stats(), err
	}

	stats := e.Stats()
	slog.Info(plan.Mode.String()+" completed",
		slog.Int("build_rows", stats.BuildRows),
		slog.Int("probe_rows", stats.ProbeRows),
		slog.Int("result_rows", stats.OutputRows),
		slog.Int("unmatched_build", stats.TailRows),
	)
	return stats, nil
}
