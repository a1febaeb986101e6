// Package server exposes a string-valued index over HTTP. It is a
// thin surface for poking at an index from scripts; the library API is
// the real interface.
package server

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ordix"
)

// New builds a fiber app serving the given tree.
func New(tree *ordix.Tree[string], log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	setupRoutes(app, tree, log)
	return app
}

// Listen serves the tree on addr until the listener fails.
func Listen(tree *ordix.Tree[string], log *zap.Logger, addr string) error {
	app := New(tree, log)
	log.Info("listening", zap.String("addr", addr))
	return app.Listen(addr)
}
