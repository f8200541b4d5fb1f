package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edachat/backend/internal/domain/dataset"
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/sandbox"
)

// countingExecutor wraps the real runner and counts executions.
type countingExecutor struct {
	runner *sandbox.Runner
	calls  int
}

func (e *countingExecutor) Execute(ctx context.Context, code string, d *dataset.Dataset) (*sandbox.Execution, error) {
	e.calls++
	return e.runner.Execute(ctx, code, d)
}

func setup(t *testing.T, size int) (*Cache, *countingExecutor) {
	t.Helper()
	cfg := &config.ExecutionConfig{Timeout: 5 * time.Second, MaxSteps: 1_000_000, CacheSize: size}
	exec := &countingExecutor{runner: sandbox.NewRunner(cfg)}
	c, err := NewCache(cfg, exec)
	require.NoError(t, err)
	return c, exec
}

func newDataset(t *testing.T, header []string, rows [][]string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New("d.csv", header, rows)
	require.NoError(t, err)
	return d
}

const chartCode = `fig = px.histogram(df, x="a")`

func TestCache_HitReturnsSameArtifact(t *testing.T) {
	c, exec := setup(t, 8)
	d := newDataset(t, []string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}})

	first, err := c.Exec(context.Background(), "s1", chartCode, d)
	require.NoError(t, err)
	second, err := c.Exec(context.Background(), "s1", chartCode, d)
	require.NoError(t, err)

	assert.Equal(t, 1, exec.calls)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Same(t, first.Figure, second.Figure)
}

func TestCache_KeyComponentsForceMiss(t *testing.T) {
	c, exec := setup(t, 8)
	d := newDataset(t, []string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}})
	ctx := context.Background()

	_, err := c.Exec(ctx, "s1", chartCode, d)
	require.NoError(t, err)

	_, err = c.Exec(ctx, "s1", chartCode+"\nfig.update_layout(title=\"t\")", d)
	require.NoError(t, err)
	assert.Equal(t, 2, exec.calls, "code change")

	moreRows := newDataset(t, []string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}})
	_, err = c.Exec(ctx, "s1", chartCode, moreRows)
	require.NoError(t, err)
	assert.Equal(t, 3, exec.calls, "shape change")

	renamed := newDataset(t, []string{"a", "c"}, [][]string{{"1", "x"}, {"2", "y"}})
	_, err = c.Exec(ctx, "s1", chartCode, renamed)
	require.NoError(t, err)
	assert.Equal(t, 4, exec.calls, "column change")

	_, err = c.Exec(ctx, "s2", chartCode, d)
	require.NoError(t, err)
	assert.Equal(t, 5, exec.calls, "session change")
}

func TestCache_SameShapeDifferentValuesHits(t *testing.T) {
	c, exec := setup(t, 8)
	ctx := context.Background()

	_, err := c.Exec(ctx, "s1", chartCode, newDataset(t, []string{"a"}, [][]string{{"1"}, {"2"}}))
	require.NoError(t, err)
	res, err := c.Exec(ctx, "s1", chartCode, newDataset(t, []string{"a"}, [][]string{{"5"}, {"9"}}))
	require.NoError(t, err)

	assert.True(t, res.Cached)
	assert.Equal(t, 1, exec.calls)
}

func TestCache_NoFigureIsNotCached(t *testing.T) {
	c, exec := setup(t, 8)
	d := newDataset(t, []string{"a"}, [][]string{{"1"}})

	for i := 0; i < 2; i++ {
		res, err := c.Exec(context.Background(), "s1", `print("ok")`, d)
		require.NoError(t, err)
		assert.Nil(t, res.Figure)
		assert.Equal(t, "ok\n", res.Output)
	}
	assert.Equal(t, 2, exec.calls)
	assert.Zero(t, c.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c, exec := setup(t, 8)
	d := newDataset(t, []string{"a"}, [][]string{{"1"}})

	_, err := c.Exec(context.Background(), "s1", "fig = undefined_name", d)
	var nameErr *sandbox.NameError
	require.ErrorAs(t, err, &nameErr)

	_, err = c.Exec(context.Background(), "s1", "fig = undefined_name", d)
	require.Error(t, err)
	assert.Equal(t, 2, exec.calls)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := setup(t, 2)
	d := newDataset(t, []string{"a"}, [][]string{{"1"}})
	ctx := context.Background()

	for _, title := range []string{"1", "2", "3"} {
		_, err := c.Exec(ctx, "s1", chartCode+"\nfig.update_layout(title=\""+title+"\")", d)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Len())
}

func TestCache_Purge(t *testing.T) {
	c, _ := setup(t, 8)
	d := newDataset(t, []string{"a"}, [][]string{{"1"}})
	ctx := context.Background()

	_, err := c.Exec(ctx, "s1", chartCode, d)
	require.NoError(t, err)
	_, err = c.Exec(ctx, "s2", chartCode, d)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Purge("s1"))
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, c.Purge("s1"))
}
