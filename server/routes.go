package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ordix"
)

func setupRoutes(app *fiber.App, tree *ordix.Tree[string], log *zap.Logger) {
	app.Post("/values", func(c *fiber.Ctx) error {
		v := c.Query("v")
		if v == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing v"})
		}
		if err := tree.Add(v); err != nil {
			log.Error("add failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "added", "value": v})
	})

	app.Get("/values/find", func(c *fiber.Ctx) error {
		v := c.Query("v")
		found, ok, err := tree.Find(v)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"found": false})
		}
		return c.JSON(fiber.Map{"found": true, "value": found})
	})

	app.Delete("/values", func(c *fiber.Ctx) error {
		v := c.Query("v")
		count, err := tree.Delete(v)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"deleted": count})
	})

	app.Get("/values", func(c *fiber.Ctx) error {
		limit := 1000
		if q := c.Query("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad limit"})
			}
			limit = n
		}
		values := make([]string, 0, min(limit, 64))
		it := tree.Iterator()
		for len(values) < limit && it.Next() {
			values = append(values, it.Value())
		}
		if err := it.Err(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"values": values})
	})

	app.Post("/flush", func(c *fiber.Ctx) error {
		if err := tree.Flush(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "flushed"})
	})
}
