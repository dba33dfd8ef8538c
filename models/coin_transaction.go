package models

import "time"

// CoinTransactionType is the reason a wallet balance changed.
type CoinTransactionType string

const (
	CoinTxQuestCompletion CoinTransactionType = "quest_completion"
	CoinTxLevelUp         CoinTransactionType = "level_up"
	CoinTxPurchase        CoinTransactionType = "purchase"
	CoinTxBonus           CoinTransactionType = "bonus"
	CoinTxDailyBonus      CoinTransactionType = "daily_bonus"
	CoinTxAchievement     CoinTransactionType = "achievement"
)

// CoinAnimation hints the client which reward animation to play.
type CoinAnimation string

const (
	AnimationQuest   CoinAnimation = "quest"
	AnimationLevelUp CoinAnimation = "level_up"
	AnimationBonus   CoinAnimation = "bonus"
)

// CoinTransaction is an append-only ledger entry. Amount is signed;
// purchases are recorded with a negated amount. Rows are never mutated
// after creation.
type CoinTransaction struct {
	ID             string              `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string              `gorm:"index;not null" json:"external_user_id"`
	Amount         int64               `gorm:"not null" json:"amount"`
	Type           CoinTransactionType `gorm:"type:varchar(32);not null" json:"type"`
	Description    string              `gorm:"type:text" json:"description"`
	Animation      CoinAnimation       `gorm:"type:varchar(16)" json:"animation"`
	Timestamp      time.Time           `gorm:"index;not null" json:"timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
