// services/heroes.go
package services

import (
	"strconv"
	"strings"

	"mythic-quest-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HeroService reads the locally mirrored hero profiles kept fresh by the
// profile sync worker.
type HeroService struct {
	DB *gorm.DB
}

func NewHeroService(db *gorm.DB) *HeroService {
	return &HeroService{DB: db}
}

// SearchHeroes searches the local HeroUser mirror by username or email.
func (s *HeroService) SearchHeroes(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var heroes []models.HeroUser
	db := s.DB.Model(&models.HeroUser{}).Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ?",
			searchTerm, searchTerm,
		)
	}

	if err := db.Find(&heroes).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Minimal response shape keyed on the profile-service id.
	type HeroSummary struct {
		ID             string  `json:"id"`
		ExternalUserID string  `json:"external_user_id"`
		Username       string  `json:"username"`
		AvatarURL      *string `json:"avatar_url,omitempty"`
	}

	res := make([]HeroSummary, len(heroes))
	for i, h := range heroes {
		res[i] = HeroSummary{
			ID:             h.ID,
			ExternalUserID: h.ExternalUserID,
			Username:       h.Username,
			AvatarURL:      h.AvatarURL,
		}
	}

	return c.JSON(res)
}
