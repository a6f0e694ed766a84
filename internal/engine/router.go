package engine

import "github.com/gofiber/fiber/v2"

func RegisterSourceRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Get("/_sources", h.ListSources)
	api.Get("/_sources/:source", h.Describe)
	api.Get("/:source", h.List)
	api.Get("/:source/_export", h.Export)
	api.Post("/:source/_batch_delete", h.BatchDelete)
	api.Get("/:source/:id", h.Show)
}
