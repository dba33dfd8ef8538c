// services/milestones.go
package services

import (
	"fmt"
	"log"

	"mythic-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MilestoneService struct {
	DB        *gorm.DB
	Wallet    *WalletService
	Narrative *AchievementService
}

func NewMilestoneService(db *gorm.DB, wallet *WalletService, narrative *AchievementService) *MilestoneService {
	return &MilestoneService{DB: db, Wallet: wallet, Narrative: narrative}
}

// AutoAward checks all milestone triggers for a hero after a progress
// update. Each milestone is awarded at most once and pays its achievement
// coin bonus. Fire-and-forget from the orchestrator's perspective.
func (s *MilestoneService) AutoAward(externalUserID string) error {
	var hero models.User
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&hero).Error; err != nil {
		return err
	}

	for _, trigger := range models.MilestoneTriggers {
		if !meetsThreshold(&hero, trigger.Threshold) {
			continue
		}

		var count int64
		s.DB.Model(&models.UserMilestone{}).
			Where("external_user_id = ? AND code = ?", externalUserID, trigger.Code).
			Count(&count)
		if count > 0 {
			continue
		}

		award := models.UserMilestone{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Code:           trigger.Code,
		}
		if err := s.DB.Create(&award).Error; err != nil {
			return err
		}
		log.Printf("🎖️  Milestone awarded: %s → %s", trigger.Name, externalUserID)

		bonus := AchievementReward(trigger.RewardKind)
		if _, err := s.Wallet.AwardCoins(externalUserID, bonus, models.CoinTxAchievement,
			fmt.Sprintf("Milestone: %s", trigger.Name), models.AnimationBonus); err != nil {
			log.Printf("⚠️  Milestone bonus failed for %s: %v", externalUserID, err)
		}

		post := s.Narrative.MilestonePost(externalUserID, externalUserID, hero.Level, trigger)
		if err := enqueueOutboxPayload(s.DB, externalUserID, models.OutboxSocialPost, post); err != nil {
			log.Printf("⚠️  Milestone post enqueue failed for %s: %v", externalUserID, err)
		}
	}

	return nil
}

// List returns the milestones a hero has earned.
func (s *MilestoneService) List(externalUserID string) ([]models.UserMilestone, error) {
	var awards []models.UserMilestone
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at DESC").
		Find(&awards).Error
	return awards, err
}

func meetsThreshold(hero *models.User, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "quests_completed":
			if hero.QuestsCompleted < required {
				return false
			}
		case "level":
			if int64(hero.Level) < required {
				return false
			}
		case "mythic_coins":
			if hero.MythicCoins < required {
				return false
			}
		case "total_walking_m":
			if int64(hero.TotalWalkingDistance) < required {
				return false
			}
		}
	}
	return true
}
