package services

import (
	"testing"
	"time"

	"mythic-quest-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuestService(db *gorm.DB) *QuestService {
	wallet := NewWalletService(db)
	narrative := NewAchievementService()
	return NewQuestService(db, wallet, narrative, NewMilestoneService(db, wallet, narrative))
}

func seedQuest(t *testing.T, db *gorm.DB, q models.Quest) *models.Quest {
	t.Helper()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	require.NoError(t, db.Create(&q).Error)
	return &q
}

func TestCompleteQuestAwardsXPAndCoins(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Morning Meditation",
		Type:           models.QuestTypeMeditation,
		Difficulty:     models.DifficultyEasy,
		XPReward:       40,
	})

	result, err := svc.CompleteQuest("hero-1", quest.ID, 0)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, int64(40), result.XPAwarded)
	assert.Equal(t, int64(23), result.CoinsAwarded) // 20*1 + 3 meditation bonus
	assert.Equal(t, 1, result.LevelBefore)
	assert.Equal(t, 1, result.LevelAfter)
	assert.False(t, result.LeveledUp)

	var hero models.User
	require.NoError(t, db.Where("external_user_id = ?", "hero-1").First(&hero).Error)
	assert.Equal(t, int64(40), hero.XP)
	assert.Equal(t, int64(123), hero.MythicCoins) // 50 starting + 23 + 50 first-quest milestone
	assert.Equal(t, int64(1), hero.QuestsCompleted)

	var reloaded models.Quest
	require.NoError(t, db.First(&reloaded, "id = ?", quest.ID).Error)
	assert.True(t, reloaded.Completed)
	assert.NotNil(t, reloaded.CompletedAt)
	assert.False(t, reloaded.IsTracking)

	var ledger models.CoinTransaction
	require.NoError(t, db.Where("external_user_id = ? AND type = ?", "hero-1", models.CoinTxQuestCompletion).First(&ledger).Error)
	assert.Equal(t, int64(23), ledger.Amount)
	assert.Equal(t, models.AnimationQuest, ledger.Animation)
}

func TestCompleteQuestAwardsFirstQuestMilestone(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Morning Meditation",
		Type:           models.QuestTypeMeditation,
		Difficulty:     models.DifficultyEasy,
		XPReward:       40,
	})

	_, err := svc.CompleteQuest("hero-1", quest.ID, 0)
	require.NoError(t, err)

	var award models.UserMilestone
	require.NoError(t, db.Where("external_user_id = ? AND code = ?", "hero-1", "FIRST_QUEST").First(&award).Error)

	var bonus models.CoinTransaction
	require.NoError(t, db.Where("external_user_id = ? AND type = ?", "hero-1", models.CoinTxAchievement).First(&bonus).Error)
	assert.Equal(t, int64(50), bonus.Amount)
}

func TestCompleteQuestExplicitCoinRewardWins(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Special Event",
		Type:           models.QuestTypeSocial,
		Difficulty:     models.DifficultyHard,
		XPReward:       10,
		CoinReward:     500,
	})

	result, err := svc.CompleteQuest("hero-1", quest.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.CoinsAwarded)
}

func TestCompleteQuestTwiceIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Morning Walk",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyEasy,
		XPReward:       50,
	})

	first, err := svc.CompleteQuest("hero-1", quest.ID, 0)
	require.NoError(t, err)
	require.False(t, first.AlreadyCompleted)

	second, err := svc.CompleteQuest("hero-1", quest.ID, 0)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	assert.Zero(t, second.XPAwarded)
	assert.Zero(t, second.CoinsAwarded)

	var hero models.User
	require.NoError(t, db.Where("external_user_id = ?", "hero-1").First(&hero).Error)
	assert.Equal(t, int64(50), hero.XP)
	assert.Equal(t, int64(1), hero.QuestsCompleted)

	// exactly one quest payout plus the one-time first-quest milestone bonus
	var ledgerCount int64
	db.Model(&models.CoinTransaction{}).Count(&ledgerCount)
	assert.Equal(t, int64(2), ledgerCount)

	var milestoneCount int64
	db.Model(&models.UserMilestone{}).Count(&milestoneCount)
	assert.Equal(t, int64(1), milestoneCount)
}

func TestCompleteQuestLevelUpCreatesPendingBonus(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Epic Hike",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyHard,
		XPReward:       120,
	})

	result, err := svc.CompleteQuest("hero-1", quest.ID, 0)
	require.NoError(t, err)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.LevelAfter)
	assert.Equal(t, int64(100), result.PendingBonus)

	// bonus is persisted with the delay but not yet paid
	var bonus models.PendingLevelUpBonus
	require.NoError(t, db.Where("external_user_id = ?", "hero-1").First(&bonus).Error)
	assert.Equal(t, 2, bonus.NewLevel)
	assert.Equal(t, int64(100), bonus.Coins)
	assert.False(t, bonus.Resolved)
	assert.WithinDuration(t, time.Now().Add(PendingBonusDelay), bonus.DueAt, time.Second)

	var levelUpEntries int64
	db.Model(&models.CoinTransaction{}).Where("type = ?", models.CoinTxLevelUp).Count(&levelUpEntries)
	assert.Equal(t, int64(0), levelUpEntries)

	// voice line queued, plus quest, level-up and two milestone posts
	// (first quest and first level-up both trip here)
	var voiceCount, postCount int64
	db.Model(&models.OutboxEntry{}).Where("kind = ?", models.OutboxVoiceLine).Count(&voiceCount)
	db.Model(&models.OutboxEntry{}).Where("kind = ?", models.OutboxSocialPost).Count(&postCount)
	assert.Equal(t, int64(1), voiceCount)
	assert.Equal(t, int64(4), postCount)
}

func TestCompleteQuestQueuesOutboxEntries(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Morning Walk",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyEasy,
		XPReward:       30,
	})

	_, err := svc.CompleteQuest("hero-1", quest.ID, 800)
	require.NoError(t, err)

	kinds := map[models.OutboxKind]int64{}
	var entries []models.OutboxEntry
	require.NoError(t, db.Find(&entries).Error)
	for _, e := range entries {
		kinds[e.Kind]++
		assert.Nil(t, e.DispatchedAt)
		assert.NotEmpty(t, e.Payload)
	}
	assert.Equal(t, int64(1), kinds[models.OutboxProgressSync])
	assert.Equal(t, int64(1), kinds[models.OutboxQuestRecord])
	assert.Equal(t, int64(1), kinds[models.OutboxWalkingSync])
	assert.Equal(t, int64(2), kinds[models.OutboxSocialPost]) // quest post + first-quest milestone post
}

func TestCompleteWalkingQuestDailyDistanceReset(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	hero := seedHero(t, NewProgressionService(db), "hero-1")

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", hero.ID).
		Updates(map[string]interface{}{
			"daily_walking_distance": 500.0,
			"total_walking_distance": 5000.0,
			"last_walking_date":      yesterday,
		}).Error)

	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Morning Walk",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyEasy,
		XPReward:       30,
	})

	_, err := svc.CompleteQuest("hero-1", quest.ID, 200)
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.Where("external_user_id = ?", "hero-1").First(&reloaded).Error)
	assert.Equal(t, 200.0, reloaded.DailyWalkingDistance) // reset, not 700
	assert.Equal(t, 5200.0, reloaded.TotalWalkingDistance)
	assert.Equal(t, time.Now().Format("2006-01-02"), reloaded.LastWalkingDate)
}

func TestCompleteWalkingQuestSameDayAccumulates(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	hero := seedHero(t, NewProgressionService(db), "hero-1")

	today := time.Now().Format("2006-01-02")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", hero.ID).
		Updates(map[string]interface{}{
			"daily_walking_distance": 500.0,
			"total_walking_distance": 5000.0,
			"last_walking_date":      today,
		}).Error)

	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Evening Walk",
		Type:           models.QuestTypeWalking,
		Difficulty:     models.DifficultyEasy,
		XPReward:       30,
	})

	_, err := svc.CompleteQuest("hero-1", quest.ID, 200)
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.Where("external_user_id = ?", "hero-1").First(&reloaded).Error)
	assert.Equal(t, 700.0, reloaded.DailyWalkingDistance)
	assert.Equal(t, 5200.0, reloaded.TotalWalkingDistance)
}

func TestCompleteLocationQuestForcesTypeAndComputedReward(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")
	quest := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Hidden Shrine",
		Type:           models.QuestTypeReading, // discovery fixes this to location
		Difficulty:     models.DifficultyHard,
		CoinReward:     999,
	})

	result, err := svc.CompleteLocationQuest("hero-1", quest.ID, 75)
	require.NoError(t, err)
	assert.Equal(t, int64(75), result.XPAwarded)
	assert.Equal(t, int64(40), result.CoinsAwarded) // 20*1.5 medium + 10 location bonus

	var reloaded models.Quest
	require.NoError(t, db.First(&reloaded, "id = ?", quest.ID).Error)
	assert.Equal(t, models.QuestTypeLocation, reloaded.Type)
	assert.Equal(t, models.DifficultyMedium, reloaded.Difficulty)
	assert.True(t, reloaded.Completed)
}

func TestCompleteQuestUnknownQuestFails(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")

	_, err := svc.CompleteQuest("hero-1", "no-such-quest", 0)
	assert.Error(t, err)
}

func TestListQuestsIncompleteFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestService(db)
	seedHero(t, NewProgressionService(db), "hero-1")

	done := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Done",
		Type:           models.QuestTypeReading,
		Difficulty:     models.DifficultyEasy,
		Completed:      true,
	})
	open := seedQuest(t, db, models.Quest{
		ExternalUserID: "hero-1",
		Title:          "Open",
		Type:           models.QuestTypeReading,
		Difficulty:     models.DifficultyEasy,
	})

	quests, err := svc.ListQuests("hero-1")
	require.NoError(t, err)
	require.Len(t, quests, 2)
	assert.Equal(t, open.ID, quests[0].ID)
	assert.Equal(t, done.ID, quests[1].ID)
}
