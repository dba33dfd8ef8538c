// services/progression.go
package services

import (
	"fmt"
	"math"
	"time"

	"mythic-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XPToNextLevelGrowth: each level-up raises the bar to floor(previous * 1.5).
const XPToNextLevelGrowth = 1.5

// XPResult is one XP application step. XP deliberately carries forward
// uncapped past the threshold: the bar rises, the counter never wraps.
type XPResult struct {
	NewXP       int64
	NewLevel    int
	NewXPToNext int64
	LeveledUp   bool
}

// AdvanceXP applies gained XP to the current progression values and evaluates
// a single level-up: newXP >= xpToNextLevel raises the level by one and the
// threshold by 1.5x. Pure function, no side effects.
func AdvanceXP(level int, xp, xpToNextLevel, gained int64) XPResult {
	res := XPResult{
		NewXP:       xp + gained,
		NewLevel:    level,
		NewXPToNext: xpToNextLevel,
	}
	if res.NewXP >= xpToNextLevel {
		res.NewLevel = level + 1
		res.NewXPToNext = int64(math.Floor(float64(xpToNextLevel) * XPToNextLevelGrowth))
		res.LeveledUp = true
	}
	return res
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureHero ensures a User progression row exists (idempotent). New heroes
// start at level 1 with 50 Mythic Coins.
func (s *ProgressionService) EnsureHero(externalUserID string) (*models.User, error) {
	var hero models.User
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&hero).Error
	if err == gorm.ErrRecordNotFound {
		hero = models.User{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Level:          models.StartingLevel,
			XP:             0,
			XPToNextLevel:  models.StartingXPToNextLevel,
			MythicCoins:    models.StartingMythicCoins,
		}
		if err := s.DB.Create(&hero).Error; err != nil {
			return nil, err
		}
		return &hero, nil
	}
	if err != nil {
		return nil, err
	}
	return &hero, nil
}

// AwardXP updates XP/level atomically, used by the admin grant endpoint.
// Quest completion goes through the orchestrator instead so coin rewards and
// narrative ride the same transaction.
func (s *ProgressionService) AwardXP(externalUserID string, xp int64, reason string) (*models.User, error) {
	var updated *models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var hero models.User
		if err := tx.Where("external_user_id = ?", externalUserID).First(&hero).Error; err != nil {
			return fmt.Errorf("hero record not found for %s", externalUserID)
		}

		res := AdvanceXP(hero.Level, hero.XP, hero.XPToNextLevel, xp)
		hero.XP = res.NewXP
		hero.Level = res.NewLevel
		hero.XPToNextLevel = res.NewXPToNext
		if res.LeveledUp {
			now := time.Now()
			hero.LastLevelUpAt = &now
		}

		if err := tx.Save(&hero).Error; err != nil {
			return err
		}

		updated = &models.User{}
		*updated = hero

		fmt.Printf("⚡ XP Awarded: %s → XP=%d, Lvl=%d (reason: %s)\n",
			externalUserID, hero.XP, hero.Level, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
