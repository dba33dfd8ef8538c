// handlers/wallet_routes.go
package handlers

import (
	"errors"
	"strconv"

	"mythic-quest-system/middleware"
	"mythic-quest-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, walletService *services.WalletService, heroService *services.HeroService, authClient *services.AuthServiceClient) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/wallet", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		balance, err := walletService.Balance(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to read balance",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"mythic_coins": balance,
			"display":      services.FormatCoins(balance),
		})
	})

	securedGroup.Get("/user/wallet/ledger", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		entries, err := walletService.Ledger(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to read ledger",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	securedGroup.Post("/user/wallet/spend", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Amount      int64  `json:"amount" validate:"required,min=1"`
			Description string `json:"description" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Amount <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "amount must be positive",
			})
		}

		entry, err := walletService.SpendCoins(userID, req.Amount, req.Description)
		if err != nil {
			if errors.Is(err, services.ErrInsufficientFunds) {
				return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
					"error": "insufficient mythic coins",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "spend failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(entry)
	})

	securedGroup.Post("/user/wallet/daily-bonus", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		entry, err := walletService.ClaimDailyBonus(userID)
		if err != nil {
			if errors.Is(err, services.ErrBonusAlreadyClaimed) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "daily bonus already claimed today",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "daily bonus claim failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(entry)
	})

	securedGroup.Get("/heroes/search", heroService.SearchHeroes)

	// SSE stream authenticates from query params; EventSource cannot set headers.
	app.Get("/user/coins/stream", middleware.SSEAuthMiddleware(authClient), walletService.StreamCoinEventsSSE)
}
