package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the canonical hero progression record (denormalized for performance).
// mythic_coins is mutated only through the wallet service; quests_completed and
// total_walking_distance are monotonically increasing counters.
type User struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	Level         int   `json:"level" gorm:"default:1"`
	XP            int64 `json:"xp" gorm:"default:0"`
	XPToNextLevel int64 `json:"xp_to_next_level" gorm:"default:100"`
	MythicCoins   int64 `json:"mythic_coins" gorm:"default:50"`

	// Activity counters
	QuestsCompleted int64 `json:"quests_completed" gorm:"default:0"`

	// Walking stats; daily values reset when the stored date differs from today
	DailyWalkingDistance float64 `json:"daily_walking_distance" gorm:"default:0"` // meters walked today
	TotalWalkingDistance float64 `json:"total_walking_distance" gorm:"default:0"` // meters walked all time
	LastWalkingDate      string  `json:"last_walking_date"`                       // ISO date string for daily reset
	DailyStepCount       int64   `json:"daily_step_count" gorm:"default:0"`
	TotalStepCount       int64   `json:"total_step_count" gorm:"default:0"`
	LastStepCountDate    string  `json:"last_step_count_date"`

	// Daily login bonus streak
	DailyStreak        int64  `json:"daily_streak" gorm:"default:0"`
	LastDailyBonusDate string `json:"last_daily_bonus_date"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Signup defaults for a fresh hero record.
const (
	StartingLevel         = 1
	StartingXPToNextLevel = 100
	StartingMythicCoins   = 50
)
