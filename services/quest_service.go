// services/quest_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mythic-quest-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingBonusDelay sequences the level-up notice before the bonus coin
// animation. The bonus itself is persisted immediately, only its award is
// deferred.
const PendingBonusDelay = 2 * time.Second

// QuestService orchestrates the quest-completion workflow: mark complete →
// walking stats → XP/level → coin award → level-up bonus saga → narrative →
// milestone evaluation.
type QuestService struct {
	DB         *gorm.DB
	Wallet     *WalletService
	Narrative  *AchievementService
	Milestones *MilestoneService
}

func NewQuestService(db *gorm.DB, wallet *WalletService, narrative *AchievementService, milestones *MilestoneService) *QuestService {
	return &QuestService{DB: db, Wallet: wallet, Narrative: narrative, Milestones: milestones}
}

// CompleteResult summarizes one completion invocation.
type CompleteResult struct {
	QuestID          string `json:"quest_id"`
	AlreadyCompleted bool   `json:"already_completed"`
	XPAwarded        int64  `json:"xp_awarded"`
	CoinsAwarded     int64  `json:"coins_awarded"`
	LevelBefore      int    `json:"level_before"`
	LevelAfter       int    `json:"level_after"`
	LeveledUp        bool   `json:"leveled_up"`
	PendingBonus     int64  `json:"pending_bonus,omitempty"`
}

// CreateQuest seeds a quest for a hero. Assignment is external to the reward
// engine: admin tooling and the daily quest generator both land here.
func (s *QuestService) CreateQuest(q *models.Quest) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return s.DB.Create(q).Error
}

// ListQuests returns a hero's quests, incomplete first, newest first within
// each group.
func (s *QuestService) ListQuests(externalUserID string) ([]models.Quest, error) {
	var quests []models.Quest
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("completed ASC, created_at DESC").
		Find(&quests).Error
	return quests, err
}

// StartQuest flags a quest as actively tracking.
func (s *QuestService) StartQuest(externalUserID, questID string) error {
	return s.DB.Model(&models.Quest{}).
		Where("id = ? AND external_user_id = ?", questID, externalUserID).
		Update("is_tracking", true).Error
}

// UpdateProgress records generic progress against a quest.
func (s *QuestService) UpdateProgress(externalUserID, questID string, progress float64, steps int64) error {
	updates := map[string]interface{}{"progress": progress}
	if steps > 0 {
		updates["current_steps"] = steps
	}
	return s.DB.Model(&models.Quest{}).
		Where("id = ? AND external_user_id = ?", questID, externalUserID).
		Updates(updates).Error
}

// CompleteQuest runs the full reward workflow in one transaction.
// Completing an already-completed quest is a true no-op: no flag re-write,
// no reward re-grant.
func (s *QuestService) CompleteQuest(externalUserID, questID string, distanceWalked float64) (*CompleteResult, error) {
	var result *CompleteResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var quest models.Quest
		if err := tx.Where("id = ? AND external_user_id = ?", questID, externalUserID).First(&quest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("quest %s not found for hero %s", questID, externalUserID)
			}
			return err
		}

		if quest.Completed {
			result = &CompleteResult{QuestID: quest.ID, AlreadyCompleted: true}
			return nil
		}

		res, err := s.completeInTx(tx, &quest, quest.XPReward, distanceWalked)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCompleted {
		log.Printf("🗡️  Quest completed: %s → hero %s (+%d XP, +%d coins, level %d→%d)",
			questID, externalUserID, result.XPAwarded, result.CoinsAwarded, result.LevelBefore, result.LevelAfter)
		s.evaluateMilestones(externalUserID)
	}
	return result, nil
}

// CompleteLocationQuest is the GPS-proximity discovery variant: reward type
// is fixed to location/medium and there is no walked distance to fold in.
func (s *QuestService) CompleteLocationQuest(externalUserID, questID string, xpReward int64) (*CompleteResult, error) {
	var result *CompleteResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var quest models.Quest
		if err := tx.Where("id = ? AND external_user_id = ?", questID, externalUserID).First(&quest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("quest %s not found for hero %s", questID, externalUserID)
			}
			return err
		}

		if quest.Completed {
			result = &CompleteResult{QuestID: quest.ID, AlreadyCompleted: true}
			return nil
		}

		quest.Type = models.QuestTypeLocation
		quest.Difficulty = models.DifficultyMedium
		quest.CoinReward = 0 // always computed for discovery quests

		res, err := s.completeInTx(tx, &quest, xpReward, 0)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCompleted {
		s.evaluateMilestones(externalUserID)
	}
	return result, nil
}

// evaluateMilestones runs the threshold checks after a committed completion.
// Every completion path lands here, including walking sessions the tracker
// finishes on its own. Fire-and-forget: failures are logged, never surfaced.
func (s *QuestService) evaluateMilestones(externalUserID string) {
	if s.Milestones == nil {
		return
	}
	if err := s.Milestones.AutoAward(externalUserID); err != nil {
		log.Printf("⚠️  Milestone evaluation failed for %s: %v", externalUserID, err)
	}
}

// completeInTx applies the reward sequence to a not-yet-completed quest.
func (s *QuestService) completeInTx(tx *gorm.DB, quest *models.Quest, xpReward int64, distanceWalked float64) (*CompleteResult, error) {
	now := time.Now()

	quest.Completed = true
	quest.CompletedAt = &now
	quest.IsTracking = false
	if err := tx.Save(quest).Error; err != nil {
		return nil, err
	}

	var hero models.User
	if err := tx.Where("external_user_id = ?", quest.ExternalUserID).First(&hero).Error; err != nil {
		return nil, fmt.Errorf("hero record not found for %s", quest.ExternalUserID)
	}
	levelBefore := hero.Level

	if quest.Type == models.QuestTypeWalking && distanceWalked > 0 {
		s.applyWalkingDistance(&hero, distanceWalked, quest.CurrentSteps, now)
		if err := enqueueOutbox(tx, hero.ExternalUserID, models.OutboxWalkingSync, map[string]interface{}{
			"daily_distance": hero.DailyWalkingDistance,
			"total_distance": hero.TotalWalkingDistance,
			"date":           hero.LastWalkingDate,
		}); err != nil {
			return nil, err
		}
	}

	res := AdvanceXP(hero.Level, hero.XP, hero.XPToNextLevel, xpReward)
	hero.XP = res.NewXP
	hero.Level = res.NewLevel
	hero.XPToNextLevel = res.NewXPToNext
	hero.QuestsCompleted++
	if res.LeveledUp {
		hero.LastLevelUpAt = &now
	}
	if err := tx.Save(&hero).Error; err != nil {
		return nil, err
	}

	coinReward := quest.CoinReward
	if coinReward == 0 {
		coinReward = CalculateQuestReward(quest.Type, quest.Difficulty)
	}

	if _, err := s.Wallet.award(tx, &hero, coinReward, models.CoinTxQuestCompletion,
		fmt.Sprintf("Completed quest: %s", quest.Title), models.AnimationQuest); err != nil {
		return nil, err
	}

	if err := enqueueOutbox(tx, hero.ExternalUserID, models.OutboxProgressSync, map[string]interface{}{
		"xp":               hero.XP,
		"level":            hero.Level,
		"coins":            hero.MythicCoins,
		"quests_completed": hero.QuestsCompleted,
	}); err != nil {
		return nil, err
	}
	if err := enqueueOutbox(tx, hero.ExternalUserID, models.OutboxQuestRecord, map[string]interface{}{
		"title":       quest.Title,
		"type":        quest.Type,
		"xp_reward":   xpReward,
		"coin_reward": coinReward,
	}); err != nil {
		return nil, err
	}

	result := &CompleteResult{
		QuestID:      quest.ID,
		XPAwarded:    xpReward,
		CoinsAwarded: coinReward,
		LevelBefore:  levelBefore,
		LevelAfter:   hero.Level,
		LeveledUp:    res.LeveledUp,
	}

	if err := s.queueNarrative(tx, &hero, quest, result, now); err != nil {
		return nil, err
	}

	return result, nil
}

// applyWalkingDistance folds a walked session into the hero's stats. The
// daily counter resets when the stored date is not today; the total only
// ever grows.
func (s *QuestService) applyWalkingDistance(hero *models.User, distance float64, steps int64, now time.Time) {
	today := now.Format("2006-01-02")

	if hero.LastWalkingDate != today {
		hero.DailyWalkingDistance = distance
	} else {
		hero.DailyWalkingDistance += distance
	}
	hero.TotalWalkingDistance += distance
	hero.LastWalkingDate = today

	if steps > 0 {
		if hero.LastStepCountDate != today {
			hero.DailyStepCount = steps
		} else {
			hero.DailyStepCount += steps
		}
		hero.TotalStepCount += steps
		hero.LastStepCountDate = today
	}
}

// queueNarrative persists the level-up bonus saga record and shapes the
// voice line plus social-feed payloads for the outbox.
func (s *QuestService) queueNarrative(tx *gorm.DB, hero *models.User, quest *models.Quest, result *CompleteResult, now time.Time) error {
	username := s.heroName(tx, hero.ExternalUserID)

	post := s.Narrative.QuestCompletionPost(hero.ExternalUserID, username, hero.Level,
		quest.ID, quest.Title, quest.Type, result.XPAwarded, result.CoinsAwarded)
	if err := enqueueOutboxPayload(tx, hero.ExternalUserID, models.OutboxSocialPost, post); err != nil {
		return err
	}

	if !result.LeveledUp {
		return nil
	}

	bonusCoins := CalculateLevelUpReward(hero.Level)
	bonus := models.PendingLevelUpBonus{
		ID:             uuid.NewString(),
		ExternalUserID: hero.ExternalUserID,
		NewLevel:       hero.Level,
		Coins:          bonusCoins,
		DueAt:          now.Add(PendingBonusDelay),
	}
	if err := tx.Create(&bonus).Error; err != nil {
		return err
	}
	result.PendingBonus = bonusCoins

	voice := models.VoiceLinePayload{
		ExternalUserID: hero.ExternalUserID,
		Text:           s.Narrative.LevelUpVoiceLine(hero.Level, quest.Type),
	}
	if err := enqueueOutboxPayload(tx, hero.ExternalUserID, models.OutboxVoiceLine, voice); err != nil {
		return err
	}

	levelPost := s.Narrative.LevelUpPost(hero.ExternalUserID, username, hero.Level,
		result.XPAwarded, bonusCoins)
	return enqueueOutboxPayload(tx, hero.ExternalUserID, models.OutboxSocialPost, levelPost)
}

// heroName resolves the display name from the profile mirror; the external
// id doubles as a fallback until the sync worker has seen the profile.
func (s *QuestService) heroName(tx *gorm.DB, externalUserID string) string {
	var hero models.HeroUser
	if err := tx.Where("external_user_id = ?", externalUserID).First(&hero).Error; err == nil && hero.Username != "" {
		return hero.Username
	}
	return externalUserID
}

func enqueueOutbox(tx *gorm.DB, externalUserID string, kind models.OutboxKind, body map[string]interface{}) error {
	return enqueueOutboxPayload(tx, externalUserID, kind, body)
}

func enqueueOutboxPayload(tx *gorm.DB, externalUserID string, kind models.OutboxKind, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s outbox payload: %w", kind, err)
	}
	entry := models.OutboxEntry{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Kind:           kind,
		Payload:        string(raw),
	}
	return tx.Create(&entry).Error
}
