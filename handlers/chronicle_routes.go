// handlers/chronicle_routes.go
package handlers

import (
	"fmt"
	"path/filepath"

	"mythic-quest-system/middleware"
	"mythic-quest-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetupChronicleRoutes serves the share-card upload used by the client's
// chronicle/share feature. Rendered cards are pushed to R2 and the CDN URL
// lands in the social-post payload.
func SetupChronicleRoutes(app *fiber.App) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/user/chronicles/share-image", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "image file is required",
				"cause": err.Error(),
			})
		}

		ext := filepath.Ext(fileHeader.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := fmt.Sprintf("chronicles/%s%s", uuid.NewString(), ext)

		url, err := utils.UploadShareImage(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "upload failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{"url": url})
	})
}
