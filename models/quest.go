package models

import "time"

// QuestType classifies the real-world wellness activity behind a quest.
type QuestType string

const (
	QuestTypeWalking    QuestType = "walking"
	QuestTypeExercise   QuestType = "exercise"
	QuestTypeMeditation QuestType = "meditation"
	QuestTypeJournaling QuestType = "journaling"
	QuestTypeReading    QuestType = "reading"
	QuestTypeSocial     QuestType = "social"
	QuestTypeLocation   QuestType = "location"
)

type QuestDifficulty string

const (
	DifficultyEasy   QuestDifficulty = "easy"
	DifficultyMedium QuestDifficulty = "medium"
	DifficultyHard   QuestDifficulty = "hard"
)

// Quest is a user-assigned wellness task. Quests are seeded externally,
// mutated in place by start/progress/complete, and never deleted, only
// marked complete.
type Quest struct {
	ID             string          `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string          `gorm:"index;not null" json:"external_user_id"`
	Title          string          `gorm:"not null" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	Type           QuestType       `gorm:"type:varchar(32);not null;index" json:"type"`
	Difficulty     QuestDifficulty `gorm:"type:varchar(16);not null" json:"difficulty"`

	XPReward   int64 `json:"xp_reward"`
	CoinReward int64 `json:"coin_reward"` // 0 means "compute from type+difficulty"

	Completed   bool       `gorm:"default:false;index" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsTracking  bool       `gorm:"default:false" json:"is_tracking"`

	// Generic progress counters
	Progress      float64 `json:"progress"`
	TotalRequired float64 `json:"total_required"`

	// Walking quest targets, the OR-gate: either one reaching its target
	// completes the quest
	TargetDistance float64 `json:"target_distance"` // meters
	TargetSteps    int64   `json:"target_steps"`
	CurrentSteps   int64   `json:"current_steps"`

	Deadline *time.Time `json:"deadline,omitempty"`

	Timestamps
}
