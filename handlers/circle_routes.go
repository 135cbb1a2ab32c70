// handlers/circle_routes.go
package handlers

import (
	"errors"

	"wellness-engine/middleware"
	"wellness-engine/services"

	"github.com/gofiber/fiber/v2"
)

// SetupCircleRoutes wires circle management — the audience behind the
// "circle" ranking scope.
func SetupCircleRoutes(app *fiber.App, circleService *services.CircleService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/circles", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		circle, err := circleService.CreateCircle(userID, req.Name)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create circle",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(circle)
	})

	securedGroup.Post("/circles/:slug/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		circle, err := circleService.JoinCircle(userID, c.Params("slug"))
		if err != nil {
			if errors.Is(err, services.ErrCircleNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "circle not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to join circle",
				"cause": err.Error(),
			})
		}
		return c.JSON(circle)
	})

	securedGroup.Get("/circles", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		circles, err := circleService.ListCircles(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list circles",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"circles": circles})
	})
}
