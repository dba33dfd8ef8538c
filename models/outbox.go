package models

import "time"

// OutboxKind selects the downstream collaborator an entry is pushed to.
type OutboxKind string

const (
	OutboxProgressSync OutboxKind = "progress_sync"
	OutboxWalkingSync  OutboxKind = "walking_sync"
	OutboxQuestRecord  OutboxKind = "quest_record"
	OutboxSocialPost   OutboxKind = "social_post"
	OutboxVoiceLine    OutboxKind = "voice_line"
)

// OutboxEntry is a durable "pending sync" record written in the same
// transaction as the reward mutation it mirrors. The outbox worker pushes
// entries to the external sync service with retry/backoff instead of the
// client-side fire-and-forget that silently dropped failures.
type OutboxEntry struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"index;not null" json:"external_user_id"`
	Kind           OutboxKind `gorm:"type:varchar(32);not null;index" json:"kind"`
	Payload        string     `gorm:"type:text;not null" json:"payload"` // JSON body for the sync service
	Attempts       int        `gorm:"default:0" json:"attempts"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`
	DispatchedAt   *time.Time `gorm:"index" json:"dispatched_at,omitempty"`

	Timestamps
}
