// Package eval computes the benchmark figures reported by the CLI
// wrappers: recall against ground truth, query throughput and latency
// summaries, peak memory, and peak goroutine counts.
package eval

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Recall computes average recall@k: the fraction of the first k
// ground-truth IDs present in each result list, averaged over queries
// with a fixed denominator of numQueries*k.
func Recall(results [][]int32, groundTruth [][]int32, k int) float64 {
	if len(results) == 0 || k <= 0 {
		return 0
	}

	truePositives := 0
	for i, res := range results {
		if i >= len(groundTruth) {
			break
		}

		resultSet := make(map[int32]struct{}, len(res))
		for _, id := range res {
			resultSet[id] = struct{}{}
		}

		gt := groundTruth[i]
		if len(gt) > k {
			gt = gt[:k]
		}
		for _, id := range gt {
			if _, ok := resultSet[id]; ok {
				truePositives++
			}
		}
	}

	return float64(truePositives) / float64(len(results)*k)
}

// LatencySummary aggregates per-query durations.
type LatencySummary struct {
	N     int
	AvgMs float64
	P50Ms float64
	P95Ms float64
	P99Ms float64
	QPS   float64
}

// Summarize computes mean and tail percentiles over the per-query
// durations, and QPS from the total wall time of the query loop.
func Summarize(durations []time.Duration, total time.Duration) LatencySummary {
	if len(durations) == 0 {
		return LatencySummary{}
	}

	ms := make([]float64, len(durations))
	for i, d := range durations {
		ms[i] = float64(d.Nanoseconds()) / 1e6
	}
	sort.Float64s(ms)

	s := LatencySummary{
		N:     len(ms),
		AvgMs: stat.Mean(ms, nil),
		P50Ms: stat.Quantile(0.50, stat.Empirical, ms, nil),
		P95Ms: stat.Quantile(0.95, stat.Empirical, ms, nil),
		P99Ms: stat.Quantile(0.99, stat.Empirical, ms, nil),
	}
	if total > 0 {
		s.QPS = float64(len(ms)) / total.Seconds()
	}
	return s
}
