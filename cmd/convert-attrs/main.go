// Command convert-attrs converts a CSV attribute file (header line plus
// one integer value per line) into the "key value" text format consumed
// by the build and search wrappers, with 0-indexed keys.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rangehnsw/benchio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "convert-attrs <input.csv> <output.data>",
		Short:         "Convert a CSV attribute file to 'key value' format",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := benchio.ConvertCSVAttributes(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("CONVERTED_VALUES: %d\n", n)
			return nil
		},
	}
}
