// Command ordix is a small CLI over an ordix index of strings. It
// exists for poking at index files: inserting, searching, scanning,
// dumping the storage file, and serving the index over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ordix"
)

var (
	metadataPath string
	degree       int
	cacheSize    int
)

func openTree() (*ordix.Tree[string], error) {
	opts := []ordix.Option{ordix.WithDegree(degree)}
	if metadataPath != "" {
		opts = append(opts, ordix.WithMetadata(metadataPath))
	}
	if cacheSize > 0 {
		opts = append(opts, ordix.WithCacheSize(cacheSize))
	}
	return ordix.New(compareStrings, ordix.StringCodec{}, opts...)
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ordix",
		Short: "Ordered, disk-persistent B-tree index",
	}
	rootCmd.PersistentFlags().StringVarP(&metadataPath, "metadata", "m", "", "metadata file path (enables persistence)")
	rootCmd.PersistentFlags().IntVarP(&degree, "degree", "d", 100, "tree degree (ignored when reopening)")
	rootCmd.PersistentFlags().IntVarP(&cacheSize, "cache", "c", 0, "node cache size (0 disables)")

	rootCmd.AddCommand(
		addCmd(),
		findCmd(),
		deleteCmd(),
		scanCmd(),
		dumpCmd(),
		serveCmd(),
		benchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <value>...",
		Short: "Insert one or more values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTree()
			if err != nil {
				return err
			}
			defer tree.Close()
			if err := tree.Add(args...); err != nil {
				return err
			}
			if err := tree.Flush(); err != nil {
				return err
			}
			cmd.Printf("added %d value(s)\n", len(args))
			return nil
		},
	}
}

func findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <value>",
		Short: "Look up a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTree()
			if err != nil {
				return err
			}
			defer tree.Close()
			v, ok, err := tree.Find(args[0])
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("not found")
				return nil
			}
			cmd.Println(v)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <value>...",
		Short: "Mark matching values as deleted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTree()
			if err != nil {
				return err
			}
			defer tree.Close()
			count, err := tree.Delete(args...)
			if err != nil {
				return err
			}
			if err := tree.Flush(); err != nil {
				return err
			}
			cmd.Printf("deleted %d key(s)\n", count)
			return nil
		},
	}
}

func scanCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print live values in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := openTree()
			if err != nil {
				return err
			}
			defer tree.Close()
			it := tree.Iterator()
			for n := 0; (limit == 0 || n < limit) && it.Next(); n++ {
				cmd.Println(it.Value())
			}
			return it.Err()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many values (0 = all)")
	return cmd
}
