// services/wallet_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"mythic-quest-system/models"

	"gorm.io/gorm"
)

// ErrInsufficientFunds is returned by SpendCoins when the debit would drive
// the wallet negative. Balances never go below zero.
var ErrInsufficientFunds = errors.New("insufficient mythic coins")

// WalletService owns the mythic_coins balance and the append-only
// CoinTransaction ledger. All balance mutations go through Award/Spend.
type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// award credits (or debits, for negative amounts) a hero already loaded in
// the caller's transaction and appends the matching ledger entry. The
// animation hint rides on the ledger row so the SSE stream can carry it to
// the client.
func (s *WalletService) award(tx *gorm.DB, hero *models.User, amount int64, txType models.CoinTransactionType, description string, animation models.CoinAnimation) (*models.CoinTransaction, error) {
	hero.MythicCoins += amount
	if err := tx.Save(hero).Error; err != nil {
		return nil, err
	}

	entry := NewTransaction(hero.ExternalUserID, amount, txType, description)
	entry.Animation = animation
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	log.Printf("💰 Coins %+d → %s (balance=%d, reason: %s)", amount, hero.ExternalUserID, hero.MythicCoins, description)
	return &entry, nil
}

// AwardCoins credits a hero's wallet. A missing hero record is a no-op,
// logged, not surfaced.
func (s *WalletService) AwardCoins(externalUserID string, amount int64, txType models.CoinTransactionType, description string, animation models.CoinAnimation) (*models.CoinTransaction, error) {
	var entry *models.CoinTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var hero models.User
		if err := tx.Where("external_user_id = ?", externalUserID).First(&hero).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("⚠️  AwardCoins skipped, no hero record for %s", externalUserID)
				return nil
			}
			return err
		}

		var err error
		entry, err = s.award(tx, &hero, amount, txType, description, animation)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SpendCoins is the checked debit: it refuses to drive the balance negative
// and records a purchase transaction with a negated amount.
func (s *WalletService) SpendCoins(externalUserID string, amount int64, description string) (*models.CoinTransaction, error) {
	var entry *models.CoinTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var hero models.User
		if err := tx.Where("external_user_id = ?", externalUserID).First(&hero).Error; err != nil {
			return err
		}
		if hero.MythicCoins < amount {
			return ErrInsufficientFunds
		}

		var err error
		entry, err = s.award(tx, &hero, -amount, models.CoinTxPurchase, description, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Ledger returns the most recent transactions, newest first.
func (s *WalletService) Ledger(externalUserID string, limit int) ([]models.CoinTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var entries []models.CoinTransaction
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// Balance reads the current wallet balance.
func (s *WalletService) Balance(externalUserID string) (int64, error) {
	var hero models.User
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&hero).Error; err != nil {
		return 0, err
	}
	return hero.MythicCoins, nil
}

// ErrBonusAlreadyClaimed is returned when a hero claims the daily bonus
// twice on the same calendar day.
var ErrBonusAlreadyClaimed = errors.New("daily bonus already claimed today")

// ClaimDailyBonus pays the login bonus once per calendar day. Claiming on
// the day after the previous claim extends the streak; skipping a day
// resets it to 1.
func (s *WalletService) ClaimDailyBonus(externalUserID string) (*models.CoinTransaction, error) {
	var entry *models.CoinTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var hero models.User
		if err := tx.Where("external_user_id = ?", externalUserID).First(&hero).Error; err != nil {
			return err
		}

		now := time.Now()
		today := now.Format("2006-01-02")
		if hero.LastDailyBonusDate == today {
			return ErrBonusAlreadyClaimed
		}

		yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
		if hero.LastDailyBonusDate == yesterday {
			hero.DailyStreak++
		} else {
			hero.DailyStreak = 1
		}
		hero.LastDailyBonusDate = today

		amount := DailyBonusAmount(hero.DailyStreak)
		var err error
		entry, err = s.award(tx, &hero, amount, models.CoinTxDailyBonus,
			fmt.Sprintf("Daily bonus (day %d)", hero.DailyStreak), models.AnimationBonus)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ResolveDuePendingBonuses awards every unresolved level-up bonus whose
// delay has elapsed. Called by the reward scheduler; the two-phase design
// means a bonus persisted at level-up time cannot be lost to a navigation
// or restart before the delay fires.
func (s *WalletService) ResolveDuePendingBonuses(now time.Time) (int, error) {
	var due []models.PendingLevelUpBonus
	if err := s.DB.Where("resolved = ? AND due_at <= ?", false, now).
		Order("due_at ASC").
		Find(&due).Error; err != nil {
		return 0, err
	}

	resolved := 0
	for _, bonus := range due {
		b := bonus
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var hero models.User
			if err := tx.Where("external_user_id = ?", b.ExternalUserID).First(&hero).Error; err != nil {
				return err
			}
			if _, err := s.award(tx, &hero, b.Coins, models.CoinTxLevelUp,
				descriptionForLevelUp(b.NewLevel), models.AnimationLevelUp); err != nil {
				return err
			}
			resolvedAt := time.Now()
			b.Resolved = true
			b.ResolvedAt = &resolvedAt
			return tx.Save(&b).Error
		})
		if err != nil {
			log.Printf("❌ Failed to resolve level-up bonus %s: %v", b.ID, err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func descriptionForLevelUp(newLevel int) string {
	return fmt.Sprintf("Reached level %d!", newLevel)
}
