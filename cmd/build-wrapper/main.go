// Command build-wrapper builds a range-filtered HNSW index from an .fvecs
// file and an attribute file, reporting build time, peak worker count, and
// peak memory as stable KEY: value lines.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rangehnsw"
	"github.com/hupe1980/rangehnsw/benchio"
	"github.com/hupe1980/rangehnsw/eval"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "build-wrapper <data.fvecs> <attributes.data> <dim> <M> <ef_construction> <threads>",
		Short:         "Build a range-filtered HNSW index and report timing figures",
		Long:          "Builds the tree-of-graphs index over the given vectors and attributes.\nThe index is memory-resident only; it is discarded on exit.",
		Args:          cobra.ExactArgs(6),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	dataPath, attrsPath := args[0], args[1]

	dim, err := parsePositiveInt("dim", args[2])
	if err != nil {
		return err
	}
	m, err := parsePositiveInt("M", args[3])
	if err != nil {
		return err
	}
	efc, err := parsePositiveInt("ef_construction", args[4])
	if err != nil {
		return err
	}
	threads, err := parsePositiveInt("threads", args[5])
	if err != nil {
		return err
	}

	data, err := benchio.ReadFVecs(dataPath)
	if err != nil {
		return err
	}
	if data.Dim != dim {
		return fmt.Errorf("dimension mismatch: expected %d, got %d in %s", dim, data.Dim, dataPath)
	}
	fmt.Printf("LOADED_VECTORS: %d\n", data.N)

	keys, values, err := benchio.ReadAttributes(attrsPath)
	if err != nil {
		return err
	}
	if len(values) != data.N {
		return fmt.Errorf("attribute count mismatch: %d vectors, %d attributes", data.N, len(values))
	}
	fmt.Printf("LOADED_ATTRIBUTES: %d\n", len(values))

	monitor := eval.NewGoroutineMonitor(0)
	monitor.Start()

	start := time.Now()
	ix, err := rangehnsw.Build(context.Background(), rangehnsw.BuildConfig{
		Dimension:      dim,
		Vectors:        data.Data,
		Keys:           keys,
		Values:         values,
		M:              m,
		EFConstruction: efc,
		WorkerCount:    threads,
	})
	buildTime := time.Since(start)

	peakGoroutines := monitor.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("BUILD_TIME_SECONDS: %.3f\n", buildTime.Seconds())
	fmt.Printf("PEAK_THREADS: %d\n", ix.PeakWorkers())
	fmt.Printf("PEAK_GOROUTINES: %d\n", peakGoroutines)
	eval.PeakMemory().Print(os.Stdout)

	return nil
}

func parsePositiveInt(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: expected an integer, got %q", name, s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, v)
	}
	return v, nil
}
