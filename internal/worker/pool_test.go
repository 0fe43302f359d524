package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteKeepsOrder(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	pool := NewPool(3, func(_ context.Context, n int) (int, error) {
		cur := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		if n == 4 {
			return 0, errors.New("four")
		}
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5, 6})
	require.Len(t, tasks, 6)
	for i, task := range tasks {
		assert.Equal(t, i+1, task.Input)
		assert.False(t, task.Skipped)
		if task.Input == 4 {
			assert.EqualError(t, task.Err, "four")
			continue
		}
		assert.NoError(t, task.Err)
		assert.Equal(t, task.Input*task.Input, task.Result)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestExecuteCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(0, func(_ context.Context, n int) (int, error) { return n, nil })
	tasks := pool.Execute(ctx, []int{1, 2, 3})
	require.Len(t, tasks, 3)

	for _, task := range tasks {
		assert.True(t, task.Skipped)
	}
}

func TestBatch(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	assert.Nil(t, Batch([]int{}, 3))
}
