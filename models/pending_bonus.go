package models

import "time"

// PendingLevelUpBonus is the durable half of the level-up bonus saga: the
// orchestrator persists the bonus at level-up time with a short delay so the
// level-up notice lands before the coin animation, and the reward scheduler
// resolves it when due. Unresolved bonuses survive restarts instead of being
// lost with a client-side timer.
type PendingLevelUpBonus struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"index;not null" json:"external_user_id"`
	NewLevel       int        `gorm:"not null" json:"new_level"`
	Coins          int64      `gorm:"not null" json:"coins"`
	DueAt          time.Time  `gorm:"index;not null" json:"due_at"`
	Resolved       bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	Timestamps
}
