package services

import (
	"testing"
	"time"

	"mythic-quest-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHero(t *testing.T, svc *ProgressionService, id string) *models.User {
	t.Helper()
	hero, err := svc.EnsureHero(id)
	require.NoError(t, err)
	return hero
}

func TestAwardCoinsUpdatesBalanceAndLedger(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)
	seedHero(t, NewProgressionService(db), "hero-1")

	entry, err := wallet.AwardCoins("hero-1", 35, models.CoinTxQuestCompletion, "Completed quest: Morning Walk", models.AnimationQuest)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(35), entry.Amount)
	assert.Equal(t, models.AnimationQuest, entry.Animation)

	balance, err := wallet.Balance("hero-1")
	require.NoError(t, err)
	assert.Equal(t, int64(85), balance) // 50 starting + 35
}

func TestAwardCoinsMissingHeroIsNoOp(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)

	entry, err := wallet.AwardCoins("ghost", 35, models.CoinTxBonus, "bonus", models.AnimationBonus)
	require.NoError(t, err)
	assert.Nil(t, entry)

	var count int64
	db.Model(&models.CoinTransaction{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSpendCoinsCheckedDebit(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)
	seedHero(t, NewProgressionService(db), "hero-1")

	entry, err := wallet.SpendCoins("hero-1", 30, "Bought a potion")
	require.NoError(t, err)
	assert.Equal(t, int64(-30), entry.Amount)
	assert.Equal(t, models.CoinTxPurchase, entry.Type)

	balance, _ := wallet.Balance("hero-1")
	assert.Equal(t, int64(20), balance)

	// overdraft refused, balance untouched
	_, err = wallet.SpendCoins("hero-1", 21, "Too expensive")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	balance, _ = wallet.Balance("hero-1")
	assert.Equal(t, int64(20), balance)
}

func TestLedgerNewestFirst(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)
	seedHero(t, NewProgressionService(db), "hero-1")

	first := NewTransaction("hero-1", 10, models.CoinTxBonus, "older")
	first.Timestamp = time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&first).Error)

	second := NewTransaction("hero-1", 20, models.CoinTxBonus, "newer")
	require.NoError(t, db.Create(&second).Error)

	entries, err := wallet.Ledger("hero-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "newer", entries[0].Description)
	assert.Equal(t, "older", entries[1].Description)
}

func TestClaimDailyBonusStreak(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)
	hero := seedHero(t, NewProgressionService(db), "hero-1")

	entry, err := wallet.ClaimDailyBonus("hero-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), entry.Amount) // 10 base + day 1 streak

	// same-day double claim refused
	_, err = wallet.ClaimDailyBonus("hero-1")
	assert.ErrorIs(t, err, ErrBonusAlreadyClaimed)

	// consecutive day extends the streak
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", hero.ID).
		Updates(map[string]interface{}{"last_daily_bonus_date": yesterday, "daily_streak": 4}).Error)

	entry, err = wallet.ClaimDailyBonus("hero-1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), entry.Amount) // 10 + 5*2

	// a skipped day resets the streak
	lastWeek := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", hero.ID).
		Updates(map[string]interface{}{"last_daily_bonus_date": lastWeek, "daily_streak": 30}).Error)

	entry, err = wallet.ClaimDailyBonus("hero-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), entry.Amount)
}

func TestResolveDuePendingBonuses(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)
	seedHero(t, NewProgressionService(db), "hero-1")

	due := models.PendingLevelUpBonus{
		ID:             "bonus-due",
		ExternalUserID: "hero-1",
		NewLevel:       2,
		Coins:          100,
		DueAt:          time.Now().Add(-time.Second),
	}
	notDue := models.PendingLevelUpBonus{
		ID:             "bonus-future",
		ExternalUserID: "hero-1",
		NewLevel:       3,
		Coins:          100,
		DueAt:          time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&due).Error)
	require.NoError(t, db.Create(&notDue).Error)

	resolved, err := wallet.ResolveDuePendingBonuses(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)

	balance, _ := wallet.Balance("hero-1")
	assert.Equal(t, int64(150), balance)

	var reloaded models.PendingLevelUpBonus
	require.NoError(t, db.First(&reloaded, "id = ?", "bonus-due").Error)
	assert.True(t, reloaded.Resolved)
	assert.NotNil(t, reloaded.ResolvedAt)

	var future models.PendingLevelUpBonus
	require.NoError(t, db.First(&future, "id = ?", "bonus-future").Error)
	assert.False(t, future.Resolved)

	var entry models.CoinTransaction
	require.NoError(t, db.Where("type = ?", models.CoinTxLevelUp).First(&entry).Error)
	assert.Equal(t, models.AnimationLevelUp, entry.Animation)
	assert.Equal(t, "Reached level 2!", entry.Description)

	// a second sweep finds nothing due
	resolved, err = wallet.ResolveDuePendingBonuses(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
}
