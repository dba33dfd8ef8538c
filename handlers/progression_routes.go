// handlers/progression_routes.go
package handlers

import (
	"log"

	"mythic-quest-system/middleware"
	"mythic-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App, progressionService *services.ProgressionService, milestoneService *services.MilestoneService) {
	// 🔐 Secured routes require user context set by the gateway.
	// The gateway forwards paths like /api/v1/quests/s/user/progress -> /user/progress
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		hero, err := progressionService.EnsureHero(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress record",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"id":                     hero.ID,
			"external_user_id":       hero.ExternalUserID,
			"level":                  hero.Level,
			"xp":                     hero.XP,
			"xp_to_next_level":       hero.XPToNextLevel,
			"mythic_coins":           hero.MythicCoins,
			"mythic_coins_display":   services.FormatCoins(hero.MythicCoins),
			"quests_completed":       hero.QuestsCompleted,
			"daily_walking_distance": hero.DailyWalkingDistance,
			"total_walking_distance": hero.TotalWalkingDistance,
			"daily_step_count":       hero.DailyStepCount,
			"total_step_count":       hero.TotalStepCount,
			"daily_streak":           hero.DailyStreak,
			"last_level_up_at":       hero.LastLevelUpAt,
		})
	})

	securedGroup.Get("/user/progress/milestones", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		awards, err := milestoneService.List(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get milestones",
				"cause": err.Error(),
			})
		}
		return c.JSON(awards)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			XP     int64  `json:"xp" validate:"required,min=1"`
			Reason string `json:"reason" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		hero, err := progressionService.AwardXP(req.UserID, req.XP, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP award failed",
				"cause": err.Error(),
			})
		}

		go func() {
			if err := milestoneService.AutoAward(req.UserID); err != nil {
				log.Printf("⚠️  Milestone evaluation failed for %s: %v", req.UserID, err)
			}
		}()

		return c.JSON(fiber.Map{
			"message": "XP granted successfully",
			"user_id": req.UserID,
			"xp":      req.XP,
			"level":   hero.Level,
		})
	})
}
