package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/lattivo/habits-api/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(app *fiber.App, h *handlers.HabitHandler, hub *handlers.Hub) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	habits := app.Group("/habits")
	habits.Post("/", h.CreateHabit)
	habits.Get("/", h.ListHabits)
	habits.Get("/:id", h.GetHabit)
	habits.Patch("/:id", h.UpdateHabit)
	habits.Delete("/:id", h.DeleteHabit)

	// WebSocket feed of one owner's habit changes
	app.Use("/ws", hub.Upgrade())
	app.Get("/ws/habits/:ownerId", websocket.New(hub.Handle))
}
