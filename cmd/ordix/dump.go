package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// dumpCmd renders every record in the storage file, including stale
// node copies superseded by later appends.
func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Walk the storage file and print every node record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metadataPath == "" {
				return fmt.Errorf("dump requires --metadata")
			}
			tree, err := openTree()
			if err != nil {
				return err
			}
			defer tree.Close()

			var buf bytes.Buffer
			if err := tree.Dump(&buf); err != nil {
				return err
			}

			nodeLine := color.New(color.FgCyan, color.Bold)
			tombLine := color.New(color.FgRed)
			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()
			sc := bufio.NewScanner(&buf)
			for sc.Scan() {
				line := sc.Text()
				switch {
				case strings.HasPrefix(line, "node "):
					fmt.Fprintln(out, nodeLine.Sprint(line))
				case strings.HasSuffix(line, " deleted"):
					fmt.Fprintln(out, tombLine.Sprint(line))
				default:
					fmt.Fprintln(out, line)
				}
			}
			return sc.Err()
		},
	}
}
