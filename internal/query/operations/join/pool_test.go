package join

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/tabular/internal/config"
	"github.com/leengari/tabular/internal/domain/schema"
	"github.com/leengari/tabular/internal/query/indexing"
	"github.com/leengari/tabular/internal/query/operations/testutil"
)

func TestProbeReleasesWorkerPool(t *testing.T) {
	left, right := testutil.CitiesTable(), testutil.PlacesTable()
	keys := schema.ColumnSpec{Indices: []int{0}}

	exec := NewExecutor(Plan{
		Mode:       ModeFull,
		LeftWidth:  left.Width,
		RightWidth: right.Width,
		BuildKeys:  indexing.NewKeyBuilder(keys, false, config.FoldASCII),
		ProbeKeys:  indexing.NewKeyBuilder(keys, false, config.FoldASCII),
	}, Options{Workers: 4, BatchSize: 3})

	require.NoError(t, exec.Build(context.Background(), right))
	sink := &testutil.RowCollector{}
	require.NoError(t, exec.Probe(context.Background(), testutil.NewSliceSource(left.Rows), sink))

	require.NotNil(t, exec.pool)
	assert.Equal(t, 4, exec.pool.Cap())
	assert.Eventually(t, func() bool {
		return exec.pool.Running() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, sink.Rows, 5)
}

func TestSequentialProbeHasNoPool(t *testing.T) {
	left, right := testutil.CitiesTable(), testutil.PlacesTable()
	keys := schema.ColumnSpec{Indices: []int{0}}

	exec := NewExecutor(Plan{
		Mode:       ModeInner,
		LeftWidth:  left.Width,
		RightWidth: right.Width,
		BuildKeys:  indexing.NewKeyBuilder(keys, false, config.FoldASCII),
		ProbeKeys:  indexing.NewKeyBuilder(keys, false, config.FoldASCII),
	}, Options{Workers: 1})

	require.NoError(t, exec.Build(context.Background(), right))
	require.NoError(t, exec.Probe(context.Background(), testutil.NewSliceSource(left.Rows), &testutil.RowCollector{}))
	assert.Nil(t, exec.pool)
}
