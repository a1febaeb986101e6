package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/spf13/cobra"

	"ordix"
)

// benchCmd loads generated values into a scratch index and reports
// insert and scan timings.
func benchCmd() *cobra.Command {
	var (
		count   int
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Insert generated values into a scratch index and time it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []ordix.Option{ordix.WithDegree(degree)}
			if cacheSize > 0 {
				opts = append(opts, ordix.WithCacheSize(cacheSize))
			}
			if persist {
				dir, err := os.MkdirTemp("", "ordix-bench-")
				if err != nil {
					return err
				}
				defer os.RemoveAll(dir)
				storage, err := ordix.NewTempStorage(dir)
				if err != nil {
					return err
				}
				opts = append(opts, ordix.WithStorage(storage))
				cmd.Printf("storage: %s\n", storage.Path())
			}
			tree, err := ordix.New(compareStrings, ordix.StringCodec{}, opts...)
			if err != nil {
				return err
			}
			defer tree.Close()

			start := time.Now()
			for i := 0; i < count; i++ {
				if err := tree.Add(faker.Word() + faker.Word()); err != nil {
					return err
				}
			}
			insertDur := time.Since(start)

			start = time.Now()
			n := 0
			it := tree.Iterator()
			for it.Next() {
				n++
			}
			if err := it.Err(); err != nil {
				return err
			}
			scanDur := time.Since(start)

			fmt.Fprintf(cmd.OutOrStdout(),
				"inserted %d in %v (%.0f/s), scanned %d in %v\n",
				count, insertDur, float64(count)/insertDur.Seconds(), n, scanDur)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10000, "number of values to insert")
	cmd.Flags().BoolVar(&persist, "persist", true, "write nodes to a scratch storage file")
	return cmd
}
