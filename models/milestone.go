package models

import "time"

// Milestone: static trigger config, defined in code like badge triggers.
type Milestone struct {
	Code        string
	Name        string
	Description string
	Rarity      string // common, rare, epic, legendary
	// Threshold keys: quests_completed, level, mythic_coins, total_walking_m
	Threshold map[string]int64
	// RewardKind selects the achievement coin bonus paid when the milestone
	// is first reached (see CoinSystem.AchievementReward).
	RewardKind string
}

// UserMilestone: awarded instance, at most one per (user, code).
type UserMilestone struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Code           string    `gorm:"index;not null" json:"code"`
	AwardedAt      time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

// MilestoneTriggers are checked after every progress update.
var MilestoneTriggers = []Milestone{
	{
		Code:        "FIRST_QUEST",
		Name:        "The Journey Begins",
		Description: "Completed your first quest",
		Rarity:      "common",
		Threshold:   map[string]int64{"quests_completed": 1},
		RewardKind:  "first_quest",
	},
	{
		Code:        "FIRST_LEVEL_UP",
		Name:        "Rising Hero",
		Description: "Reached level 2",
		Rarity:      "common",
		Threshold:   map[string]int64{"level": 2},
		RewardKind:  "first_level_up",
	},
	{
		Code:        "HUNDRED_QUESTS",
		Name:        "Centurion of Wellness",
		Description: "Completed 100 quests",
		Rarity:      "epic",
		Threshold:   map[string]int64{"quests_completed": 100},
		RewardKind:  "hundred_quests",
	},
	{
		Code:        "LEVEL_10",
		Name:        "Seasoned Adventurer",
		Description: "Reached level 10",
		Rarity:      "rare",
		Threshold:   map[string]int64{"level": 10},
	},
	{
		Code:        "COIN_HOARD",
		Name:        "Dragon's Hoard",
		Description: "Held 1000 Mythic Coins",
		Rarity:      "rare",
		Threshold:   map[string]int64{"mythic_coins": 1000},
	},
	{
		Code:        "MARATHON_WALKER",
		Name:        "Pathfinder of Eldoria",
		Description: "Walked 42 km all time",
		Rarity:      "epic",
		Threshold:   map[string]int64{"total_walking_m": 42195},
	},
}
