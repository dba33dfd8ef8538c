// handlers/walk_routes.go
package handlers

import (
	"errors"
	"time"

	"mythic-quest-system/middleware"
	"mythic-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWalkRoutes(app *fiber.App, walkTracker *services.WalkTracker) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/user/quests/:id/walk/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		progress, err := walkTracker.StartSession(userID, questID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrSessionExists):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, services.ErrNotWalkingQuest), errors.Is(err, services.ErrQuestAlreadyDone):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			default:
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			}
		}
		return c.JSON(progress)
	})

	securedGroup.Post("/user/quests/:id/walk/position", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		type Req struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Accuracy  float64 `json:"accuracy"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		progress, err := walkTracker.IngestPosition(userID, questID, req.Latitude, req.Longitude, req.Accuracy, time.Now())
		if err != nil {
			// Late sensor callbacks after stop are expected; tell the client to quit sending.
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(progress)
	})

	securedGroup.Post("/user/quests/:id/walk/motion", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		type Req struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		progress, err := walkTracker.IngestMotion(userID, questID, req.X, req.Y, req.Z, time.Now())
		if err != nil {
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(progress)
	})

	securedGroup.Post("/user/quests/:id/walk/stop", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		progress, err := walkTracker.StopSession(userID, questID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(progress)
	})

	securedGroup.Get("/user/quests/:id/walk/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		progress, err := walkTracker.Progress(userID, questID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(progress)
	})
}
