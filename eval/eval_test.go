package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecall(t *testing.T) {
	groundTruth := [][]int32{
		{1, 2, 3},
		{4, 5, 6},
	}

	t.Run("perfect", func(t *testing.T) {
		results := [][]int32{
			{3, 1, 2},
			{6, 5, 4},
		}
		assert.InDelta(t, 1.0, Recall(results, groundTruth, 3), 1e-9)
	})

	t.Run("partial", func(t *testing.T) {
		results := [][]int32{
			{1, 2, 99},
			{98, 97, 96},
		}
		// 2 hits out of 2 queries * k=3.
		assert.InDelta(t, 2.0/6.0, Recall(results, groundTruth, 3), 1e-9)
	})

	t.Run("ground truth longer than k", func(t *testing.T) {
		gt := [][]int32{{1, 2, 3, 4, 5}}
		results := [][]int32{{1, 2}}
		// Only the first k ground-truth entries count.
		assert.InDelta(t, 1.0, Recall(results, gt, 2), 1e-9)
	})

	t.Run("short result list", func(t *testing.T) {
		gt := [][]int32{{1, 2, 3}}
		results := [][]int32{{1}}
		assert.InDelta(t, 1.0/3.0, Recall(results, gt, 3), 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Zero(t, Recall(nil, groundTruth, 3))
		assert.Zero(t, Recall([][]int32{{1}}, groundTruth, 0))
	})
}

func TestSummarize(t *testing.T) {
	durations := make([]time.Duration, 100)
	for i := range durations {
		durations[i] = time.Duration(i+1) * time.Millisecond
	}

	s := Summarize(durations, time.Second)

	assert.Equal(t, 100, s.N)
	assert.InDelta(t, 50.5, s.AvgMs, 1e-9)
	assert.InDelta(t, 100.0, s.QPS, 1e-9)
	assert.GreaterOrEqual(t, s.P95Ms, s.P50Ms)
	assert.GreaterOrEqual(t, s.P99Ms, s.P95Ms)
	assert.InDelta(t, 50.0, s.P50Ms, 1.0)
	assert.InDelta(t, 99.0, s.P99Ms, 1.5)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Second)
	assert.Zero(t, s.N)
	assert.Zero(t, s.QPS)
}

func TestPeakMemory(t *testing.T) {
	r := PeakMemory()
	assert.Positive(t, r.PID)
	assert.Positive(t, r.HeapSysKB)
}

func TestGoroutineMonitor(t *testing.T) {
	m := NewGoroutineMonitor(time.Millisecond)
	m.Start()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			<-done
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(done)

	peak := m.Stop()
	require.GreaterOrEqual(t, peak, 8)
}
