// Command search-wrapper rebuilds the range-filtered HNSW index and runs
// range-filtered queries against it, reporting QPS, recall, and resource
// figures as stable KEY: value lines.
//
// The index has no serialized form, so the wrapper rebuilds it from the
// same inputs as build-wrapper, using ef_construction = max(200,
// 2*ef_search). --ef_search accepts a comma-separated list; each value is
// timed and reported on its own line.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rangehnsw"
	"github.com/hupe1980/rangehnsw/benchio"
	"github.com/hupe1980/rangehnsw/eval"
)

type searchFlags struct {
	dataPath        string
	queryPath       string
	queryRangesFile string
	groundtruthFile string
	attributesFile  string
	dim             int
	efSearch        string
	k               int
	m               int
	threads         int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:           "search-wrapper",
		Short:         "Run range-filtered ANN queries and report QPS and recall",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	cmd.Flags().StringVar(&flags.dataPath, "data_path", "", "database vectors in .fvecs format")
	cmd.Flags().StringVar(&flags.queryPath, "query_path", "", "query vectors in .fvecs format")
	cmd.Flags().StringVar(&flags.queryRangesFile, "query_ranges_file", "", "query ranges (L-R per line)")
	cmd.Flags().StringVar(&flags.groundtruthFile, "groundtruth_file", "", "ground truth in .ivecs format")
	cmd.Flags().StringVar(&flags.attributesFile, "attributes_file", "", "attributes in 'key value' format")
	cmd.Flags().IntVar(&flags.dim, "dim", 0, "vector dimension")
	cmd.Flags().StringVar(&flags.efSearch, "ef_search", "", "search ef parameter (comma-separated list allowed)")
	cmd.Flags().IntVar(&flags.k, "k", 0, "number of neighbors to return")
	cmd.Flags().IntVar(&flags.m, "M", 0, "HNSW degree (used for rebuild)")
	cmd.Flags().IntVar(&flags.threads, "threads", 0, "build workers (0 = all cores)")

	for _, name := range []string{"data_path", "query_path", "query_ranges_file", "groundtruth_file", "attributes_file", "dim", "ef_search", "k", "M"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func run(flags searchFlags) error {
	efList, err := parseIntList(flags.efSearch)
	if err != nil {
		return fmt.Errorf("ef_search: %w", err)
	}
	if flags.dim <= 0 || flags.k <= 0 || flags.m <= 0 {
		return fmt.Errorf("invalid numeric parameters: dim=%d, k=%d, M=%d", flags.dim, flags.k, flags.m)
	}
	maxEF := 0
	for _, ef := range efList {
		if ef <= 0 {
			return fmt.Errorf("ef_search must be positive, got %d", ef)
		}
		if ef > maxEF {
			maxEF = ef
		}
	}

	data, err := benchio.ReadFVecs(flags.dataPath)
	if err != nil {
		return err
	}
	if data.Dim != flags.dim {
		return fmt.Errorf("dimension mismatch: expected %d, got %d in %s", flags.dim, data.Dim, flags.dataPath)
	}

	queries, err := benchio.ReadFVecs(flags.queryPath)
	if err != nil {
		return err
	}
	if queries.Dim != flags.dim {
		return fmt.Errorf("dimension mismatch: expected %d, got %d in %s", flags.dim, queries.Dim, flags.queryPath)
	}

	keys, values, err := benchio.ReadAttributes(flags.attributesFile)
	if err != nil {
		return err
	}
	if len(values) != data.N {
		return fmt.Errorf("attribute count mismatch: %d vectors, %d attributes", data.N, len(values))
	}

	ranges, err := benchio.ReadRanges(flags.queryRangesFile)
	if err != nil {
		return err
	}
	if len(ranges) != queries.N {
		return fmt.Errorf("query range count mismatch: %d queries, %d ranges", queries.N, len(ranges))
	}

	groundTruth, err := benchio.ReadIVecs(flags.groundtruthFile)
	if err != nil {
		return err
	}
	if len(groundTruth) != queries.N {
		return fmt.Errorf("ground truth count mismatch: %d queries, %d entries", queries.N, len(groundTruth))
	}

	fmt.Printf("LOADED_VECTORS: %d\n", data.N)
	fmt.Printf("LOADED_QUERIES: %d\n", queries.N)

	// The index is memory-resident only; rebuild with the harness default
	// ef_construction.
	efConstruction := 200
	if 2*maxEF > efConstruction {
		efConstruction = 2 * maxEF
	}

	buildStart := time.Now()
	ix, err := rangehnsw.Build(context.Background(), rangehnsw.BuildConfig{
		Dimension:      flags.dim,
		Vectors:        data.Data,
		Keys:           keys,
		Values:         values,
		M:              flags.m,
		EFConstruction: efConstruction,
		WorkerCount:    flags.threads,
	})
	if err != nil {
		return err
	}
	fmt.Printf("REBUILD_TIME_SECONDS: %.3f\n", time.Since(buildStart).Seconds())

	monitor := eval.NewGoroutineMonitor(0)
	monitor.Start()

	// Queries run on a single goroutine for benchmarking determinism.
	for _, ef := range efList {
		results := make([][]int32, queries.N)
		durations := make([]time.Duration, queries.N)

		queryStart := time.Now()
		for i := 0; i < queries.N; i++ {
			qStart := time.Now()
			hits, err := ix.QueryRange(queries.Row(i), ranges[i].L, ranges[i].R, flags.k, ef)
			if err != nil {
				monitor.Stop()
				return fmt.Errorf("query %d: %w", i, err)
			}
			durations[i] = time.Since(qStart)

			ids := make([]int32, len(hits))
			for j, h := range hits {
				ids[j] = int32(h.ID)
			}
			results[i] = ids
		}
		queryTime := time.Since(queryStart)

		recall := eval.Recall(results, groundTruth, flags.k)
		summary := eval.Summarize(durations, queryTime)

		fmt.Printf("ef_search: %d QPS: %.3f Recall: %.5f\n", ef, summary.QPS, recall)

		if len(efList) == 1 {
			fmt.Printf("QUERY_TIME_SECONDS: %.3f\n", queryTime.Seconds())
			fmt.Printf("QPS: %.3f\n", summary.QPS)
			fmt.Printf("RECALL: %.5f\n", recall)
			fmt.Printf("LATENCY_P50_MS: %.4f\n", summary.P50Ms)
			fmt.Printf("LATENCY_P99_MS: %.4f\n", summary.P99Ms)
		}
	}

	fmt.Printf("PEAK_THREADS: %d\n", monitor.Stop())
	eval.PeakMemory().Print(os.Stdout)

	return nil
}

// parseIntList parses a comma-separated integer list, tolerating optional
// surrounding brackets ("[4,8,16]").
func parseIntList(s string) ([]int, error) {
	cleaned := strings.NewReplacer("[", "", "]", "", " ", "").Replace(s)
	if cleaned == "" {
		return nil, fmt.Errorf("empty list")
	}

	var out []int
	for _, tok := range strings.Split(cleaned, ",") {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", tok)
		}
		out = append(out, v)
	}
	return out, nil
}
