package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, engine Engine) {
	h := NewHandler(engine)

	app.Get("/health", h.Health)
	app.Get("/articles", h.Articles)
	app.Post("/ask", h.Ask)
}
