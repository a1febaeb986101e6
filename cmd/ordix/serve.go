package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordix"
	"ordix/logger"
	"ordix/server"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			zl, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer zl.Sync()

			opts := []ordix.Option{
				ordix.WithDegree(degree),
				ordix.WithLogger(logger.NewZap(zl)),
			}
			if metadataPath != "" {
				opts = append(opts, ordix.WithMetadata(metadataPath))
			}
			if cacheSize > 0 {
				opts = append(opts, ordix.WithCacheSize(cacheSize))
			}
			tree, err := ordix.New(compareStrings, ordix.StringCodec{}, opts...)
			if err != nil {
				return err
			}
			defer tree.Close()

			return server.Listen(tree, zl, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	return cmd
}
