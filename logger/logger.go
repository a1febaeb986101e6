// Package logger provides adapters for popular logger libraries to
// work with ordix's Logger interface.
//
// The adapters allow you to use your existing logger with ordix
// without writing boilerplate. Note that the standard library's
// slog.Logger already implements ordix.Logger directly.
//
// Example with zap:
//
//	zapLogger, _ := zap.NewProduction()
//
//	tree, err := ordix.New(strings.Compare, ordix.StringCodec{},
//	    ordix.WithLogger(logger.NewZap(zapLogger)),
//	)
package logger
