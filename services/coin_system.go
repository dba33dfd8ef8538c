// services/coin_system.go
package services

import (
	"fmt"
	"math"
	"time"

	"mythic-quest-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Coin economy constants. Unknown types/difficulties silently default
// (multiplier 1, bonus 0); availability over strictness.
const (
	QuestCompletionBaseReward = 20
	LevelUpBaseReward         = 100
	DailyBonusBaseReward      = 10
	MaxDailyStreakBonus       = 50
)

var difficultyMultipliers = map[models.QuestDifficulty]float64{
	models.DifficultyEasy:   1,
	models.DifficultyMedium: 1.5,
	models.DifficultyHard:   2,
}

var questTypeBonuses = map[models.QuestType]int64{
	models.QuestTypeWalking:    5,
	models.QuestTypeExercise:   5,
	models.QuestTypeMeditation: 3,
	models.QuestTypeJournaling: 3,
	models.QuestTypeReading:    2,
	models.QuestTypeSocial:     4,
	models.QuestTypeLocation:   10,
}

var achievementRewards = map[string]int64{
	"first_quest":    50,
	"first_level_up": 100,
	"week_streak":    150,
	"month_streak":   500,
	"hundred_quests": 1000,
	"max_level":      2000,
}

var coinPrinter = message.NewPrinter(language.English)

// CalculateQuestReward returns the coin reward for a quest from its type and
// difficulty: round(base * difficultyMultiplier + typeBonus). Deterministic,
// no side effects.
func CalculateQuestReward(questType models.QuestType, difficulty models.QuestDifficulty) int64 {
	mult, ok := difficultyMultipliers[difficulty]
	if !ok {
		mult = 1
	}
	bonus := questTypeBonuses[questType]
	return int64(math.Round(float64(QuestCompletionBaseReward)*mult + float64(bonus)))
}

// CalculateLevelUpReward is the single authoritative level-up bonus formula:
// 100 base + 25 extra every 5 levels. Monotonically non-decreasing.
func CalculateLevelUpReward(newLevel int) int64 {
	return LevelUpBaseReward + int64(newLevel/5)*25
}

// DailyBonusAmount grows with the login streak, capped at +50.
func DailyBonusAmount(consecutiveDays int64) int64 {
	streakBonus := consecutiveDays * 2
	if streakBonus > MaxDailyStreakBonus {
		streakBonus = MaxDailyStreakBonus
	}
	return DailyBonusBaseReward + streakBonus
}

// AchievementReward returns the coin bonus for a milestone kind, defaulting
// to 25 for unknown kinds.
func AchievementReward(kind string) int64 {
	if reward, ok := achievementRewards[kind]; ok {
		return reward
	}
	return 25
}

// NewTransaction stamps a fresh ledger entry. Negative amounts are allowed;
// purchases are recorded as negated debits.
func NewTransaction(externalUserID string, amount int64, txType models.CoinTransactionType, description string) models.CoinTransaction {
	return models.CoinTransaction{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Amount:         amount,
		Type:           txType,
		Description:    description,
		Timestamp:      time.Now(),
	}
}

// FormatCoins renders a wallet balance for display: "2.5M", "1.5K", or a
// locale-grouped integer below a thousand.
func FormatCoins(amount int64) string {
	if amount >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(amount)/1_000_000)
	}
	if amount >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(amount)/1_000)
	}
	return coinPrinter.Sprintf("%d", amount)
}

// CoinRarity tiers a coin amount, checked descending so boundary values
// classify into the higher tier.
func CoinRarity(amount int64) string {
	switch {
	case amount >= 200:
		return "legendary"
	case amount >= 100:
		return "epic"
	case amount >= 50:
		return "rare"
	default:
		return "common"
	}
}
