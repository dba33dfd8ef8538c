// handlers/quest_routes.go
package handlers

import (
	"mythic-quest-system/middleware"
	"mythic-quest-system/models"
	"mythic-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuestRoutes(app *fiber.App, questService *services.QuestService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/user/quests", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var quest models.Quest
		if err := c.BodyParser(&quest); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		quest.ExternalUserID = userID
		quest.Completed = false
		quest.CompletedAt = nil

		if err := questService.CreateQuest(&quest); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to create quest",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(quest)
	})

	securedGroup.Get("/user/quests", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		quests, err := questService.ListQuests(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list quests",
				"cause": err.Error(),
			})
		}
		return c.JSON(quests)
	})

	securedGroup.Post("/user/quests/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		if err := questService.StartQuest(userID, questID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to start quest",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "quest started", "quest_id": questID})
	})

	securedGroup.Put("/user/quests/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		type Req struct {
			Progress float64 `json:"progress"`
			Steps    int64   `json:"steps"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		if err := questService.UpdateProgress(userID, questID, req.Progress, req.Steps); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "progress updated"})
	})

	securedGroup.Post("/user/quests/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		type Req struct {
			DistanceWalked float64 `json:"distance_walked"`
		}
		var req Req
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON",
					"cause": err.Error(),
				})
			}
		}

		result, err := questService.CompleteQuest(userID, questID, req.DistanceWalked)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "quest completion failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	// GPS proximity discovery: the client reports the discovered location
	// quest with the XP printed on the map marker.
	securedGroup.Post("/user/quests/:id/discover", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questID := c.Params("id")

		type Req struct {
			XPReward int64 `json:"xp_reward"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := questService.CompleteLocationQuest(userID, questID, req.XPReward)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "location quest completion failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})
}
